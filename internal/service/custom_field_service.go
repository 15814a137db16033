package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/pagination"
	"ohshop-admin/internal/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CustomFieldRepository defines the database operations the custom field service needs.
type CustomFieldRepository interface {
	List(ctx context.Context, entity string, p pagination.Params) ([]*data.CustomFieldDefinition, int64, error)
	ActiveFor(ctx context.Context, entity string) ([]*data.CustomFieldDefinition, error)
	FindByKey(ctx context.Context, entity, key string) (*data.CustomFieldDefinition, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*data.CustomFieldDefinition, error)
	Create(ctx context.Context, d *data.CustomFieldDefinition) error
	Update(ctx context.Context, d *data.CustomFieldDefinition) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// CustomFieldInput is the editable part of a custom field definition.
type CustomFieldInput struct {
	Entity     string               `json:"entity" validate:"required,oneof=products members companies content_media"`
	Key        string               `json:"key" validate:"required,max=64"`
	Label      string               `json:"label" validate:"required,max=120"`
	DataType   string               `json:"dataType" validate:"required,oneof=text number boolean date select"`
	Validation data.FieldValidation `json:"validation"`
	Active     bool                 `json:"active"`
}

var reFieldKey = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// CustomFieldService manages user-defined fields and checks values against them.
type CustomFieldService struct {
	repo CustomFieldRepository
}

// NewCustomFieldService creates a new CustomFieldService.
func NewCustomFieldService(repo CustomFieldRepository) *CustomFieldService {
	return &CustomFieldService{repo: repo}
}

// List returns a page of definitions for entity (all entities when empty).
func (s *CustomFieldService) List(ctx context.Context, entity string, p pagination.Params) (pagination.Page[*data.CustomFieldDefinition], error) {
	items, total, err := s.repo.List(ctx, entity, p)
	if err != nil {
		return pagination.Page[*data.CustomFieldDefinition]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

// Create validates in and stores a new definition. Keys are unique per entity.
func (s *CustomFieldService) Create(ctx context.Context, in CustomFieldInput) (*data.CustomFieldDefinition, error) {
	if err := checkDefinition(in); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByKey(ctx, in.Entity, in.Key); err == nil {
		return nil, fmt.Errorf("custom field %s.%s: %w", in.Entity, in.Key, data.ErrDuplicate)
	} else if !errors.Is(err, data.ErrNotFound) {
		return nil, err
	}
	d := &data.CustomFieldDefinition{
		Entity:     in.Entity,
		Key:        in.Key,
		Label:      in.Label,
		DataType:   in.DataType,
		Validation: in.Validation,
		Active:     in.Active,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Update changes label, type, rules and active flag. Entity and key are fixed.
func (s *CustomFieldService) Update(ctx context.Context, id primitive.ObjectID, in CustomFieldInput) (*data.CustomFieldDefinition, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Entity, in.Key = d.Entity, d.Key
	if err := checkDefinition(in); err != nil {
		return nil, err
	}
	d.Label = in.Label
	d.DataType = in.DataType
	d.Validation = in.Validation
	d.Active = in.Active
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete soft-deletes a definition.
func (s *CustomFieldService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.Delete(ctx, id)
}

func checkDefinition(in CustomFieldInput) error {
	if err := validation.Struct(&in); err != nil {
		return err
	}
	if !reFieldKey.MatchString(in.Key) {
		return invalidf("key %q must be lowercase letters, digits and underscores", in.Key)
	}
	v := in.Validation
	if v.Pattern != "" {
		if _, err := regexp.Compile(v.Pattern); err != nil {
			return invalidf("pattern: %v", err)
		}
	}
	if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
		return invalidf("min must not exceed max")
	}
	if in.DataType == data.FieldSelect && len(v.Options) == 0 {
		return invalidf("select fields need at least one option")
	}
	return nil
}

// ValidateValues checks values against the active definitions of entity.
// Unknown keys and rule violations are reported together.
func (s *CustomFieldService) ValidateValues(ctx context.Context, entity string, values map[string]interface{}) error {
	defs, err := s.repo.ActiveFor(ctx, entity)
	if err != nil {
		return err
	}
	return ValidateCustomValues(defs, values)
}

// ValidateCustomValues checks values against defs without touching the database.
func ValidateCustomValues(defs []*data.CustomFieldDefinition, values map[string]interface{}) error {
	byKey := make(map[string]*data.CustomFieldDefinition, len(defs))
	for _, d := range defs {
		byKey[d.Key] = d
	}

	var errs validation.Errors
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d, ok := byKey[k]
		if !ok {
			errs = append(errs, fieldErr(k, "unknown", "custom field %s is not defined", k))
			continue
		}
		if fe := checkValue(d, values[k]); fe != nil {
			errs = append(errs, *fe)
		}
	}
	for _, d := range defs {
		if !d.Validation.Required {
			continue
		}
		if v, ok := values[d.Key]; !ok || v == nil || v == "" {
			errs = append(errs, fieldErr(d.Key, "required", "%s is required", d.Label))
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func checkValue(d *data.CustomFieldDefinition, value interface{}) *validation.FieldError {
	if value == nil {
		return nil
	}
	rules := d.Validation
	switch d.DataType {
	case data.FieldText:
		s, ok := value.(string)
		if !ok {
			return fieldErrPtr(d.Key, "type", "%s must be text", d.Label)
		}
		n := float64(len([]rune(s)))
		if rules.Min != nil && n < *rules.Min {
			return fieldErrPtr(d.Key, "min", "%s must be at least %v characters", d.Label, *rules.Min)
		}
		if rules.Max != nil && n > *rules.Max {
			return fieldErrPtr(d.Key, "max", "%s must be at most %v characters", d.Label, *rules.Max)
		}
		if rules.Pattern != "" {
			if re, err := regexp.Compile(rules.Pattern); err == nil && !re.MatchString(s) {
				return fieldErrPtr(d.Key, "pattern", "%s has an invalid format", d.Label)
			}
		}
	case data.FieldNumber:
		n, ok := toFloat(value)
		if !ok {
			return fieldErrPtr(d.Key, "type", "%s must be a number", d.Label)
		}
		if rules.Min != nil && n < *rules.Min {
			return fieldErrPtr(d.Key, "min", "%s must be at least %v", d.Label, *rules.Min)
		}
		if rules.Max != nil && n > *rules.Max {
			return fieldErrPtr(d.Key, "max", "%s must be at most %v", d.Label, *rules.Max)
		}
	case data.FieldBoolean:
		if _, ok := value.(bool); !ok {
			return fieldErrPtr(d.Key, "type", "%s must be true or false", d.Label)
		}
	case data.FieldDate:
		s, ok := value.(string)
		if !ok || !isDate(s) {
			return fieldErrPtr(d.Key, "type", "%s must be a date", d.Label)
		}
	case data.FieldSelect:
		s, ok := value.(string)
		if !ok || !contains(rules.Options, s) {
			return fieldErrPtr(d.Key, "oneof", "%s must be one of the listed options", d.Label)
		}
	}
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func isDate(s string) bool {
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

func fieldErr(field, tag, format string, args ...interface{}) validation.FieldError {
	return validation.FieldError{Field: "custom_fields." + field, Tag: tag, Message: fmt.Sprintf(format, args...)}
}

func fieldErrPtr(field, tag, format string, args ...interface{}) *validation.FieldError {
	fe := fieldErr(field, tag, format, args...)
	return &fe
}
