// Пакет access — решение о доступе пользователя к объекту.
//
// ADMIN видит любой объект независимо от назначений.
// USER может отмечаться на объекте (и видеть его) только если объект активен
// и пользователю выдан доступ к нему.
// Все проверки ролей и назначений для объектов сосредоточены здесь.
package access

import (
	"github.com/bigkaa/geoattend/internal/domain/model"
	"github.com/bigkaa/geoattend/internal/domain/rbac"
)

// Reason — причина отказа в доступе.
type Reason string

const (
	// ReasonNone — доступ разрешён.
	ReasonNone Reason = ""
	// ReasonNoAssignedSite — у пользователя нет доступа к объекту.
	ReasonNoAssignedSite Reason = "NO_ASSIGNED_SITE"
	// ReasonSiteInactive — объект выключен.
	ReasonSiteInactive Reason = "SITE_INACTIVE"
)

// Subject — кто запрашивает доступ.
type Subject struct {
	UserID string
	Role   string
}

// Decision — результат проверки доступа.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Message — текст отказа для пользователя.
func (d Decision) Message() string {
	switch d.Reason {
	case ReasonNoAssignedSite:
		return "You are not assigned to this location."
	case ReasonSiteInactive:
		return "This location is not active."
	default:
		return ""
	}
}

// CanSubmit решает, может ли субъект действовать на объекте.
// granted — существует ли назначение subject → site.
// Отсутствие назначения проверяется раньше неактивности объекта.
func CanSubmit(subject Subject, site model.Location, granted bool) Decision {
	if rbac.IsAdmin(subject.Role) {
		return Decision{Allowed: true}
	}
	if !granted {
		return Decision{Reason: ReasonNoAssignedSite}
	}
	if !site.IsActive {
		return Decision{Reason: ReasonSiteInactive}
	}
	return Decision{Allowed: true}
}

// CanManage — может ли субъект создавать, изменять и удалять объекты,
// управлять пользователями и назначениями.
func CanManage(subject Subject) bool {
	return rbac.IsAdmin(subject.Role)
}

// VisibleSites отбирает объекты, доступные субъекту.
// Для ADMIN — все объекты без изменений, для USER — активные с назначением.
func VisibleSites(subject Subject, sites []*model.Location, grantedIDs map[string]bool) []*model.Location {
	if rbac.IsAdmin(subject.Role) {
		return sites
	}
	result := make([]*model.Location, 0, len(sites))
	for _, s := range sites {
		if CanSubmit(subject, *s, grantedIDs[s.ID]).Allowed {
			result = append(result, s)
		}
	}
	return result
}
