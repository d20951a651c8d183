package models

// Building 表示楼号信息
type Building struct {
	BaseModel
	BuildingName string `gorm:"type:varchar(50);not null" json:"building_name"`
	BuildingCode string `gorm:"type:varchar(20);unique;not null" json:"building_code"`
	Address      string `gorm:"type:varchar(200)" json:"address"`
	Status       string `gorm:"type:varchar(20);default:'active'" json:"status"` // active, inactive
}
