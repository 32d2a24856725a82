package models

import (
	"strings"
	"time"
)

// Gender is the optional gender hint passed to the image generator
type Gender string

const (
	GenderUnset     Gender = ""
	GenderMale      Gender = "male"
	GenderFemale    Gender = "female"
	GenderNonBinary Gender = "non-binary"
)

// ParseGender maps free-form input onto a known Gender, defaulting to unset
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "man", "m":
		return GenderMale
	case "female", "woman", "f":
		return GenderFemale
	case "non-binary", "nonbinary", "non_binary", "nb":
		return GenderNonBinary
	default:
		return GenderUnset
	}
}

// UserProfile is the onboarding result and the single input of a generation run
type UserProfile struct {
	BasePhoto string    `bson:"base_photo,omitempty" json:"base_photo,omitempty"` // local path of the selfie
	Gender    Gender    `bson:"gender,omitempty" json:"gender,omitempty"`
	Keywords  []string  `bson:"keywords" json:"keywords"`
	Brands    []string  `bson:"brands" json:"brands"`
	StyleTags []string  `bson:"style_tags" json:"style_tags"`
	Onboarded bool      `bson:"onboarded" json:"onboarded"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasBasePhoto reports whether the profile can drive a generation run
func (p UserProfile) HasBasePhoto() bool {
	return strings.TrimSpace(p.BasePhoto) != ""
}
