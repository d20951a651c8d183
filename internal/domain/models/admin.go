package models

// Admin roles
const (
	AdminRoleAdmin = "admin"
	AdminRoleKiosk = "kiosk" // badge-scan terminals
)

// Admin represents operator accounts: administrators and kiosk terminals
type Admin struct {
	BaseModel
	Username string `gorm:"type:varchar(50);unique;not null" json:"username"`
	Password string `gorm:"type:varchar(100);not null" json:"-"` // Password not exposed in JSON
	Email    string `gorm:"type:varchar(100)" json:"email"`
	Role     string `gorm:"type:varchar(50);default:'admin'" json:"role"`    // Role: admin, kiosk
	Status   string `gorm:"type:varchar(20);default:'active'" json:"status"` // Status: active, inactive
}
