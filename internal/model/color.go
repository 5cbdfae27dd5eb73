package model

type Color struct {
	BaseModel
	Name     string `gorm:"size:64;not null" json:"name"`
	ColorHex string `gorm:"size:7;not null;uniqueIndex" json:"colorHex"`
}
