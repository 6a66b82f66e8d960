package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/agency_site/internal/hash"
	"github.com/Skotchmaster/agency_site/internal/models"
)

// GormRepo implements Store on sqlite or postgres.
type GormRepo struct {
	DB     *gorm.DB
	hasher hash.Hasher
	cfg    settings
	creds  *credentialChecker
}

var _ Store = (*GormRepo)(nil)

func NewGormRepo(db *gorm.DB, hasher hash.Hasher, opts ...Option) *GormRepo {
	return &GormRepo{
		DB:     db,
		hasher: hasher,
		cfg:    buildSettings(opts),
		creds:  &credentialChecker{hasher: hasher},
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrEmailTaken
	}
	return err
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// guardedSave writes every column of row only while its status is still the one
// read inside this transaction; a concurrent status change makes it ErrStaleStatus.
func guardedSave[T any](tx *gorm.DB, row *T, status string) error {
	res := tx.Model(row).Where("status = ?", status).Select("*").Updates(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

func first[T any](ctx context.Context, db *gorm.DB, id uint) (T, error) {
	var row T
	if err := db.WithContext(ctx).First(&row, id).Error; err != nil {
		return row, translate(err)
	}
	return row, nil
}

func deleteByID[T any](db *gorm.DB, id uint) (bool, error) {
	res := db.Delete(new(T), id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// users

func (r *GormRepo) CreateUser(ctx context.Context, nu models.NewUser) (models.User, error) {
	pwHash, err := r.hasher.Hash(nu.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := newUserRow(nu, pwHash, r.cfg.stamp())

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email_key = ?", u.EmailKey).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrEmailTaken
		}
		return tx.Create(&u).Error
	})
	if err != nil {
		return models.User{}, translate(err)
	}
	return u, nil
}

func (r *GormRepo) GetUser(ctx context.Context, id uint) (models.User, error) {
	return first[models.User](ctx, r.DB, id)
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("email_key = ?", models.NormalizeEmail(email)).First(&u).Error; err != nil {
		return models.User{}, translate(err)
	}
	return u, nil
}

func (r *GormRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormRepo) UpdateUser(ctx context.Context, id uint, p models.UserPatch) (models.User, error) {
	var pwHash string
	if p.Password != nil {
		h, err := r.hasher.Hash(*p.Password)
		if err != nil {
			return models.User{}, fmt.Errorf("hash password: %w", err)
		}
		pwHash = h
	}

	var u models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, id).Error; err != nil {
			return err
		}
		oldKey := u.EmailKey
		p.ApplyProfile(&u)
		if u.EmailKey != oldKey {
			var n int64
			if err := tx.Model(&models.User{}).Where("email_key = ? AND id <> ?", u.EmailKey, id).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return ErrEmailTaken
			}
		}
		if pwHash != "" {
			u.PasswordHash = pwHash
		}
		u.ID = id
		u.UpdatedAt = r.cfg.touch(u.UpdatedAt)
		return tx.Save(&u).Error
	})
	if err != nil {
		return models.User{}, translate(err)
	}
	return u, nil
}

func (r *GormRepo) DeleteUser(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := deleteByID[models.User](tx, id)
		if err != nil || !ok {
			return err
		}
		deleted = true
		return tx.Where("user_id = ?", id).Delete(&models.CartItem{}).Error
	})
	return deleted, err
}

func (r *GormRepo) ValidateCredentials(ctx context.Context, email, password string) (models.User, error) {
	u, err := r.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		r.creds.verify(nil, password)
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if !r.creds.verify(&u, password) {
		return models.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// catalog

func catalogQuery(db *gorm.DB, f ProductFilter) *gorm.DB {
	q := db.Order("id ASC")
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	return q
}

func (r *GormRepo) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	now := r.cfg.stamp()
	p.ID, p.CreatedAt, p.UpdatedAt = 0, now, now
	if err := r.DB.WithContext(ctx).Create(&p).Error; err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (models.Product, error) {
	return first[models.Product](ctx, r.DB, id)
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	items := []models.Product{}
	if err := catalogQuery(r.DB.WithContext(ctx), f).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) UpdateProduct(ctx context.Context, id uint, patch models.ProductPatch) (models.Product, error) {
	var p models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			return err
		}
		patch.ApplyProduct(&p)
		p.UpdatedAt = r.cfg.touch(p.UpdatedAt)
		return tx.Save(&p).Error
	})
	if err != nil {
		return models.Product{}, translate(err)
	}
	return p, nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := deleteByID[models.Product](tx, id)
		if err != nil || !ok {
			return err
		}
		deleted = true
		return tx.Where("product_id = ? AND is_addon = ?", id, false).Delete(&models.CartItem{}).Error
	})
	return deleted, err
}

func (r *GormRepo) CreateAddon(ctx context.Context, a models.AddonProduct) (models.AddonProduct, error) {
	now := r.cfg.stamp()
	a.ID, a.CreatedAt, a.UpdatedAt = 0, now, now
	if err := r.DB.WithContext(ctx).Create(&a).Error; err != nil {
		return models.AddonProduct{}, err
	}
	return a, nil
}

func (r *GormRepo) GetAddon(ctx context.Context, id uint) (models.AddonProduct, error) {
	return first[models.AddonProduct](ctx, r.DB, id)
}

func (r *GormRepo) ListAddons(ctx context.Context, f ProductFilter) ([]models.AddonProduct, error) {
	items := []models.AddonProduct{}
	if err := catalogQuery(r.DB.WithContext(ctx), f).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) UpdateAddon(ctx context.Context, id uint, patch models.ProductPatch) (models.AddonProduct, error) {
	var a models.AddonProduct
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&a, id).Error; err != nil {
			return err
		}
		patch.ApplyAddon(&a)
		a.UpdatedAt = r.cfg.touch(a.UpdatedAt)
		return tx.Save(&a).Error
	})
	if err != nil {
		return models.AddonProduct{}, translate(err)
	}
	return a, nil
}

func (r *GormRepo) DeleteAddon(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := deleteByID[models.AddonProduct](tx, id)
		if err != nil || !ok {
			return err
		}
		deleted = true
		return tx.Where("product_id = ? AND is_addon = ?", id, true).Delete(&models.CartItem{}).Error
	})
	return deleted, err
}

// cart

func (r *GormRepo) AddCartItem(ctx context.Context, item models.CartItem) (models.CartItem, error) {
	var line models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND product_id = ? AND is_addon = ?", item.UserID, item.ProductID, item.IsAddon).
			First(&line).Error
		switch {
		case err == nil:
			line.Quantity += item.Quantity
			line.UpdatedAt = r.cfg.touch(line.UpdatedAt)
			return tx.Save(&line).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			now := r.cfg.stamp()
			line = item
			line.ID, line.CreatedAt, line.UpdatedAt = 0, now, now
			return tx.Create(&line).Error
		default:
			return err
		}
	})
	if err != nil {
		return models.CartItem{}, err
	}
	return line, nil
}

func (r *GormRepo) GetCartItem(ctx context.Context, id uint) (models.CartItem, error) {
	return first[models.CartItem](ctx, r.DB, id)
}

func (r *GormRepo) ListCartItems(ctx context.Context, userID uint) ([]models.CartItem, error) {
	items := []models.CartItem{}
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) UpdateCartItem(ctx context.Context, id uint, quantity int) (models.CartItem, error) {
	var c models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			return err
		}
		c.Quantity = quantity
		c.UpdatedAt = r.cfg.touch(c.UpdatedAt)
		return tx.Save(&c).Error
	})
	if err != nil {
		return models.CartItem{}, translate(err)
	}
	return c, nil
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, id uint) (bool, error) {
	return deleteByID[models.CartItem](r.DB.WithContext(ctx), id)
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

// orders

func (r *GormRepo) CreateOrder(ctx context.Context, o models.Order, items []models.OrderItem) (models.Order, []models.OrderItem, error) {
	now := r.cfg.stamp()
	o.ID, o.CreatedAt, o.UpdatedAt = 0, now, now
	stored := make([]models.OrderItem, len(items))
	copy(stored, items)

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&o).Error; err != nil {
			return err
		}
		if len(stored) == 0 {
			return nil
		}
		for i := range stored {
			stored[i].ID, stored[i].OrderID = 0, o.ID
			stored[i].CreatedAt, stored[i].UpdatedAt = now, now
		}
		return tx.Create(&stored).Error
	})
	if err != nil {
		return models.Order{}, nil, err
	}
	return o, stored, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (models.Order, error) {
	return first[models.Order](ctx, r.DB, id)
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	q := r.DB.WithContext(ctx).Order("id ASC")
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	orders := []models.Order{}
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) UpdateOrder(ctx context.Context, id uint, p models.OrderPatch) (models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&o, id).Error; err != nil {
			return err
		}
		if p.ExpectStatus != "" && o.Status != p.ExpectStatus {
			return ErrStaleStatus
		}
		read := o.Status
		p.Apply(&o)
		o.UpdatedAt = r.cfg.touch(o.UpdatedAt)
		return guardedSave(tx, &o, read)
	})
	if err != nil {
		return models.Order{}, translate(err)
	}
	return o, nil
}

func (r *GormRepo) DeleteOrder(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := deleteByID[models.Order](tx, id)
		if err != nil || !ok {
			return err
		}
		deleted = true
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Where("order_id = ?", id).Delete(&models.OrderRevision{}).Error
	})
	return deleted, err
}

func (r *GormRepo) ListOrderItems(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CreateOrderRevision(ctx context.Context, rev models.OrderRevision) (models.OrderRevision, error) {
	now := r.cfg.stamp()
	rev.ID, rev.CreatedAt, rev.UpdatedAt = 0, now, now
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Order{}, rev.OrderID).Error; err != nil {
			return err
		}
		return tx.Create(&rev).Error
	})
	if err != nil {
		return models.OrderRevision{}, translate(err)
	}
	return rev, nil
}

func (r *GormRepo) ListOrderRevisions(ctx context.Context, orderID uint) ([]models.OrderRevision, error) {
	revs := []models.OrderRevision{}
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&revs).Error; err != nil {
		return nil, err
	}
	return revs, nil
}

// submissions

func (r *GormRepo) CreateSubmission(ctx context.Context, s models.Submission) (models.Submission, error) {
	now := r.cfg.stamp()
	s.ID, s.CreatedAt, s.UpdatedAt = 0, now, now
	if err := r.DB.WithContext(ctx).Create(&s).Error; err != nil {
		return models.Submission{}, err
	}
	return s, nil
}

func (r *GormRepo) GetSubmission(ctx context.Context, id uint) (models.Submission, error) {
	return first[models.Submission](ctx, r.DB, id)
}

func (r *GormRepo) ListSubmissions(ctx context.Context, f SubmissionFilter) ([]models.Submission, error) {
	q := r.DB.WithContext(ctx).Order("id ASC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var rows []models.Submission
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	// date bounds are compared on time.Time so sqlite text timestamps and postgres timestamptz agree
	out := make([]models.Submission, 0, len(rows))
	for _, s := range rows {
		if inSubmissionRange(s, f) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *GormRepo) UpdateSubmission(ctx context.Context, id uint, p models.SubmissionPatch) (models.Submission, error) {
	var s models.Submission
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&s, id).Error; err != nil {
			return err
		}
		if p.ExpectStatus != "" && s.Status != p.ExpectStatus {
			return ErrStaleStatus
		}
		read := s.Status
		p.Apply(&s)
		s.UpdatedAt = r.cfg.touch(s.UpdatedAt)
		return guardedSave(tx, &s, read)
	})
	if err != nil {
		return models.Submission{}, translate(err)
	}
	return s, nil
}

func (r *GormRepo) DeleteSubmission(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := deleteByID[models.Submission](tx, id)
		if err != nil || !ok {
			return err
		}
		deleted = true
		return tx.Where("submission_id = ?", id).Delete(&models.Note{}).Error
	})
	return deleted, err
}

func (r *GormRepo) CreateNote(ctx context.Context, n models.Note) (models.Note, error) {
	now := r.cfg.stamp()
	n.ID, n.CreatedAt, n.UpdatedAt = 0, now, now
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Submission{}, n.SubmissionID).Error; err != nil {
			return err
		}
		return tx.Create(&n).Error
	})
	if err != nil {
		return models.Note{}, translate(err)
	}
	return n, nil
}

func (r *GormRepo) ListNotes(ctx context.Context, submissionID uint) ([]models.Note, error) {
	notes := []models.Note{}
	if err := r.DB.WithContext(ctx).Where("submission_id = ?", submissionID).Order("id ASC").Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// audit

func (r *GormRepo) CreateAuditLog(ctx context.Context, a models.AuditLog) (models.AuditLog, error) {
	a = a.Clone()
	a.ID, a.CreatedAt = 0, r.cfg.stamp()
	if err := r.DB.WithContext(ctx).Create(&a).Error; err != nil {
		return models.AuditLog{}, err
	}
	return a, nil
}

func (r *GormRepo) ListAuditLogs(ctx context.Context, f AuditFilter) ([]models.AuditLog, int64, error) {
	scope := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.AuditLog{})
		if f.UserID != 0 {
			q = q.Where("user_id = ?", f.UserID)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := scope().Order("id DESC")
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	logs := []models.AuditLog{}
	if err := q.Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
