package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/readlog/internal/entities"
)

// Entity lists the versioned entity types the generic repository serves.
type Entity interface {
	entities.Book | entities.Session | entities.Quote
}

// Repository is the generic create/read/update/delete layer keyed by entity
// type and integer id. It is not safe for concurrent writers; callers
// serialize access.
type Repository[T Entity] struct {
	db *gorm.DB
}

func NewRepository[T Entity](db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository[T]) WithTx(tx *gorm.DB) *Repository[T] {
	return &Repository[T]{db: tx}
}

func (r *Repository[T]) Create(entity *T) error {
	if err := r.db.Create(entity).Error; err != nil {
		return fmt.Errorf("create %s: %w", tableName[T](), err)
	}
	return nil
}

func (r *Repository[T]) Get(id uint) (*T, error) {
	var entity T
	if err := r.db.First(&entity, id).Error; err != nil {
		return nil, translate(err, tableName[T](), id)
	}
	return &entity, nil
}

// Update writes every column of entity, including zero values. Owned
// collections are not touched.
func (r *Repository[T]) Update(entity *T) error {
	res := r.db.Model(entity).Select("*").Omit(clause.Associations).Updates(entity)
	if res.Error != nil {
		return fmt.Errorf("update %s: %w", tableName[T](), res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update %s: %w", tableName[T](), ErrNotFound)
	}
	return nil
}

func (r *Repository[T]) Delete(id uint) error {
	var entity T
	res := r.db.Delete(&entity, id)
	if res.Error != nil {
		return fmt.Errorf("delete %s %d: %w", tableName[T](), id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete %s %d: %w", tableName[T](), id, ErrNotFound)
	}
	return nil
}

// Find returns all rows matching query (gorm Where syntax), ordered by id.
func (r *Repository[T]) Find(query any, args ...any) ([]T, error) {
	var rows []T
	tx := r.db.Order("id ASC")
	if query != nil {
		tx = tx.Where(query, args...)
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find %s: %w", tableName[T](), err)
	}
	return rows, nil
}

// FindOne returns the first row matching query or ErrNotFound.
func (r *Repository[T]) FindOne(query any, args ...any) (*T, error) {
	var entity T
	if err := r.db.Where(query, args...).Order("id ASC").First(&entity).Error; err != nil {
		return nil, translate(err, tableName[T](), 0)
	}
	return &entity, nil
}

func (r *Repository[T]) Count() (int64, error) {
	var count int64
	var entity T
	err := r.db.Model(&entity).Count(&count).Error
	return count, err
}

type tabler interface {
	TableName() string
}

func tableName[T Entity]() string {
	var entity T
	if t, ok := any(entity).(tabler); ok {
		return t.TableName()
	}
	return fmt.Sprintf("%T", entity)
}

func translate(err error, table string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if id == 0 {
			return fmt.Errorf("%s: %w", table, ErrNotFound)
		}
		return fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", table, err)
}
