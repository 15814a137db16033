package data

import (
	"html/template"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names in the platform database.
const (
	CategoriesCollection       = "main_categories"
	ContentMediaCollection     = "content_media"
	CompaniesCollection        = "companies"
	ProductsCollection         = "products"
	MembersCollection          = "members"
	ImmigrationCollection      = "immigration_services"
	NewsTickersCollection      = "news_tickers"
	MigrationHistoryCollection = "migration_history"
	CustomFieldsCollection     = "custom_fields"
	AdminUsersCollection       = "admin_users"
)

// Base carries the fields shared by every stored document.
type Base struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
	Deleted   bool               `bson:"deleted" json:"-"`
	DeletedAt *time.Time         `bson:"deleted_at,omitempty" json:"-"`
}

func (b *Base) meta() *Base { return b }

// Category is a main content category shown in the storefront navigation.
type Category struct {
	Base            `bson:",inline"`
	Name            string               `bson:"name" json:"name"`
	Slug            string               `bson:"slug" json:"slug"`
	Description     string               `bson:"description" json:"description"`
	DescriptionHTML template.HTML        `bson:"-" json:"description_html,omitempty"`
	Logo            string               `bson:"logo" json:"logo"`
	Active          bool                 `bson:"active" json:"active"`
	Featured        bool                 `bson:"featured" json:"featured"`
	Position        int                  `bson:"position" json:"position"`
	PinnedContents  []primitive.ObjectID `bson:"pinned_contents" json:"pinned_contents"`
}

// Episode is one part of a series-type content item.
type Episode struct {
	Number          int    `bson:"number" json:"number"`
	Title           string `bson:"title" json:"title"`
	URL             string `bson:"url" json:"url"`
	DurationSeconds int    `bson:"duration_seconds" json:"duration_seconds"`
}

// MediaItem references an uploaded or external asset.
type MediaItem struct {
	URL    string `bson:"url" json:"url"`
	Type   string `bson:"type" json:"type"`
	FileID string `bson:"file_id,omitempty" json:"file_id,omitempty"`
}

// ContentMedia is a piece of content (video, series, image, article) listed under a category.
type ContentMedia struct {
	Base        `bson:",inline"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	Type        string              `bson:"type" json:"type"`
	CategoryID  primitive.ObjectID  `bson:"category_id,omitempty" json:"category_id,omitempty"`
	CompanyID   *primitive.ObjectID `bson:"company_id,omitempty" json:"company_id,omitempty"`
	CompanyName string              `bson:"company_name,omitempty" json:"company_name,omitempty"`
	Thumbnail   string              `bson:"thumbnail" json:"thumbnail"`
	Pinned      bool                `bson:"pinned" json:"pinned"`
	Featured    bool                `bson:"featured" json:"featured"`
	Episodes    []Episode           `bson:"episodes" json:"episodes"`
	Media       []MediaItem         `bson:"media" json:"media"`
}

// PointPerson is the contact at a client company.
type PointPerson struct {
	Name        string `bson:"name" json:"name"`
	Designation string `bson:"designation" json:"designation"`
	Email       string `bson:"email" json:"email"`
	Phone       string `bson:"phone" json:"phone"`
}

// Company is an advertising client.
type Company struct {
	Base         `bson:",inline"`
	Name         string      `bson:"name" json:"name"`
	BusinessType string      `bson:"business_type" json:"business_type"`
	Address      string      `bson:"address" json:"address"`
	PointPerson  PointPerson `bson:"point_person" json:"point_person"`
	Website      string      `bson:"website" json:"website"`
}

// RentalSpecs describes rental pricing for a product.
type RentalSpecs struct {
	DailyRate   float64 `bson:"daily_rate" json:"daily_rate"`
	WeeklyRate  float64 `bson:"weekly_rate" json:"weekly_rate"`
	MonthlyRate float64 `bson:"monthly_rate" json:"monthly_rate"`
	Deposit     float64 `bson:"deposit" json:"deposit"`
	Currency    string  `bson:"currency" json:"currency"`
	MinimumDays int     `bson:"minimum_days" json:"minimum_days"`
}

// Product statuses.
const (
	ProductDraft    = "draft"
	ProductActive   = "active"
	ProductInactive = "inactive"
	ProductArchived = "archived"
)

// Product is an item a client company lists on the platform.
type Product struct {
	Base         `bson:",inline"`
	Name         string                 `bson:"name" json:"name"`
	CompanyID    *primitive.ObjectID    `bson:"company_id,omitempty" json:"company_id,omitempty"`
	CompanyName  string                 `bson:"company_name,omitempty" json:"company_name,omitempty"`
	Status       string                 `bson:"status" json:"status"`
	SpecsRental  *RentalSpecs           `bson:"specs_rental,omitempty" json:"specs_rental,omitempty"`
	Media        []MediaItem            `bson:"media" json:"media"`
	AITextTags   []string               `bson:"ai_text_tags" json:"ai_text_tags"`
	CustomFields map[string]interface{} `bson:"custom_fields,omitempty" json:"custom_fields,omitempty"`
}

// Member is a person registered under a client company.
type Member struct {
	Base        `bson:",inline"`
	FirstName   string              `bson:"first_name" json:"first_name"`
	LastName    string              `bson:"last_name" json:"last_name"`
	Email       string              `bson:"email" json:"email"`
	Phone       string              `bson:"phone" json:"phone"`
	CompanyID   *primitive.ObjectID `bson:"company_id,omitempty" json:"company_id,omitempty"`
	CompanyName string              `bson:"company_name,omitempty" json:"company_name,omitempty"`
	Role        string              `bson:"role" json:"role"`
	Active      bool                `bson:"active" json:"active"`
}

// ImmigrationService is a visa or relocation service offered through the platform.
type ImmigrationService struct {
	Base            `bson:",inline"`
	Title           string        `bson:"title" json:"title"`
	Country         string        `bson:"country" json:"country"`
	Description     string        `bson:"description" json:"description"`
	DescriptionHTML template.HTML `bson:"-" json:"description_html,omitempty"`
	Requirements    []string      `bson:"requirements" json:"requirements"`
	ProcessingDays  int           `bson:"processing_days" json:"processing_days"`
	Fee             float64       `bson:"fee" json:"fee"`
	Currency        string        `bson:"currency" json:"currency"`
	Active          bool          `bson:"active" json:"active"`
	Position        int           `bson:"position" json:"position"`
}

// NewsTicker is a scrolling headline on the storefront.
type NewsTicker struct {
	Base     `bson:",inline"`
	Text     string     `bson:"text" json:"text"`
	Link     string     `bson:"link" json:"link"`
	Active   bool       `bson:"active" json:"active"`
	Position int        `bson:"position" json:"position"`
	StartsAt *time.Time `bson:"starts_at,omitempty" json:"starts_at,omitempty"`
	EndsAt   *time.Time `bson:"ends_at,omitempty" json:"ends_at,omitempty"`
}

// Migration run statuses.
const (
	MigrationRunning   = "running"
	MigrationCompleted = "completed"
	MigrationFailed    = "failed"
	MigrationCancelled = "cancelled"
)

// MigrationHistoryEntry records one run of a backfill migration.
type MigrationHistoryEntry struct {
	Base             `bson:",inline"`
	Migration        string     `bson:"migration" json:"migration"`
	Status           string     `bson:"status" json:"status"`
	Progress         int        `bson:"progress" json:"progress"`
	Total            int64      `bson:"total" json:"total"`
	Processed        int64      `bson:"processed" json:"processed"`
	Updated          int64      `bson:"updated" json:"updated"`
	Skipped          int64      `bson:"skipped" json:"skipped"`
	Failed           int64      `bson:"failed" json:"failed"`
	ProcessingRate   float64    `bson:"processing_rate" json:"processingRate"`
	DefaultCompanyID string     `bson:"default_company_id,omitempty" json:"default_company_id,omitempty"`
	StartedBy        string     `bson:"started_by" json:"started_by"`
	StartedAt        time.Time  `bson:"started_at" json:"started_at"`
	FinishedAt       *time.Time `bson:"finished_at,omitempty" json:"finished_at,omitempty"`
	Error            string     `bson:"error,omitempty" json:"error,omitempty"`
	Logs             []string   `bson:"logs" json:"logs"`
}

// Custom field data types.
const (
	FieldText    = "text"
	FieldNumber  = "number"
	FieldBoolean = "boolean"
	FieldDate    = "date"
	FieldSelect  = "select"
)

// FieldValidation holds the rules attached to a custom field.
type FieldValidation struct {
	Required bool     `bson:"required" json:"required"`
	Min      *float64 `bson:"min,omitempty" json:"min,omitempty"`
	Max      *float64 `bson:"max,omitempty" json:"max,omitempty"`
	Pattern  string   `bson:"pattern,omitempty" json:"pattern,omitempty"`
	Options  []string `bson:"options,omitempty" json:"options,omitempty"`
}

// CustomFieldDefinition is a user-defined extension field for an entity.
type CustomFieldDefinition struct {
	Base       `bson:",inline"`
	Entity     string          `bson:"entity" json:"entity"`
	Key        string          `bson:"key" json:"key"`
	Label      string          `bson:"label" json:"label"`
	DataType   string          `bson:"data_type" json:"dataType"`
	Validation FieldValidation `bson:"validation" json:"validation"`
	Active     bool            `bson:"active" json:"active"`
}

// Admin roles, lowest to highest.
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// AdminUser is an account that can sign in to the dashboard.
type AdminUser struct {
	Base         `bson:",inline"`
	Email        string     `bson:"email" json:"email"`
	DisplayName  string     `bson:"display_name" json:"display_name"`
	PasswordHash string     `bson:"password_hash" json:"-"`
	Role         string     `bson:"role" json:"role"`
	Avatar       string     `bson:"avatar" json:"avatar"`
	Phone        string     `bson:"phone" json:"phone"`
	LastLoginAt  *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
}

// StoredFile describes a file kept in the uploads bucket.
type StoredFile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
