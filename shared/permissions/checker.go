package permissions

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"gestao-backend/shared/database/models"
)

// Checker answers "what role does this user hold in this company", the
// question behind every scoped authorization decision. It is consulted
// on the server for every company-scoped operation; clients are never
// trusted with it.
type Checker struct {
	db    *gorm.DB
	cache *MembershipCache
}

// NewChecker builds a Checker. cache may be nil, in which case every
// lookup goes to the database.
func NewChecker(db *gorm.DB, cache *MembershipCache) *Checker {
	return &Checker{db: db, cache: cache}
}

// MembershipRole returns the caller's role in the company and whether a
// membership exists at all.
func (c *Checker) MembershipRole(ctx context.Context, userID, companyID uint) (string, bool, error) {
	if role, found, hit := c.cache.Get(ctx, userID, companyID); hit {
		return role, found, nil
	}

	var membership models.UserCompany
	err := c.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.cache.Set(ctx, userID, companyID, "")
			return "", false, nil
		}
		return "", false, err
	}

	c.cache.Set(ctx, userID, companyID, membership.Role)
	return membership.Role, true, nil
}

// IsMember reports whether the user belongs to the company.
func (c *Checker) IsMember(ctx context.Context, userID, companyID uint) (bool, error) {
	_, found, err := c.MembershipRole(ctx, userID, companyID)
	return found, err
}

// CanManage reports whether the user holds a privileged role (dono or
// administrador) in the company.
func (c *Checker) CanManage(ctx context.Context, userID, companyID uint) (bool, error) {
	role, found, err := c.MembershipRole(ctx, userID, companyID)
	if err != nil || !found {
		return false, err
	}
	return IsPrivileged(role), nil
}

// Invalidate drops the cached role for a pair after a membership write.
func (c *Checker) Invalidate(ctx context.Context, userID, companyID uint) {
	c.cache.Invalidate(ctx, userID, companyID)
}
