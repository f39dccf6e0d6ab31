package model

import (
	"time"
)

type WeatherCondition string

const (
	WeatherSunny  WeatherCondition = "SUNNY"
	WeatherCloudy WeatherCondition = "CLOUDY"
)

type AgeGroup string

const (
	AgeChild   AgeGroup = "CHILD"
	AgeTeen    AgeGroup = "TEEN"
	AgeAdult   AgeGroup = "ADULT"
	AgeElderly AgeGroup = "ELDERLY"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

type Activity string

const (
	ActivitySedentary Activity = "SEDENTARY"
	ActivityWalking   Activity = "WALKING"
	ActivityStrenuous Activity = "STRENUOUS"
)

// swagger:model Tally
type Tally struct {
	BaseModel
	LocationID       uint             `gorm:"index;not null" json:"locationId"`
	UserID           uint             `gorm:"index;not null" json:"userId"`
	Observer         string           `gorm:"size:255;not null" json:"observer"`
	StartDate        time.Time        `gorm:"not null" json:"startDate"`
	EndDate          *time.Time       `json:"endDate"`
	AnimalsAmount    *int             `json:"animalsAmount"`
	Temperature      *float64         `json:"temperature"`
	WeatherCondition WeatherCondition `gorm:"size:16;not null" json:"weatherCondition"`
	People           []TallyPerson    `json:"people,omitempty"`
}

func (Tally) TableName() string {
	return "tallies"
}

// TallyPerson counts the people observed in a tally with one profile.
type TallyPerson struct {
	BaseModel
	TallyID                     uint     `gorm:"not null;uniqueIndex:idx_tally_person_profile" json:"tallyId"`
	AgeGroup                    AgeGroup `gorm:"size:16;not null;uniqueIndex:idx_tally_person_profile" json:"ageGroup"`
	Gender                      Gender   `gorm:"size:16;not null;uniqueIndex:idx_tally_person_profile" json:"gender"`
	Activity                    Activity `gorm:"size:16;not null;uniqueIndex:idx_tally_person_profile" json:"activity"`
	IsTraversing                bool     `gorm:"not null;uniqueIndex:idx_tally_person_profile" json:"isTraversing"`
	IsPersonWithImpairment      bool     `gorm:"not null;uniqueIndex:idx_tally_person_profile" json:"isPersonWithImpairment"`
	IsInApparentIllicitActivity bool     `gorm:"not null;uniqueIndex:idx_tally_person_profile" json:"isInApparentIllicitActivity"`
	IsPersonWithoutHousing      bool     `gorm:"not null;uniqueIndex:idx_tally_person_profile" json:"isPersonWithoutHousing"`
	Quantity                    int      `gorm:"not null;default:0" json:"quantity"`
}

func (TallyPerson) TableName() string {
	return "tally_people"
}

// ProfileColumns are the columns that identify a TallyPerson within a tally.
var ProfileColumns = []string{
	"tally_id", "age_group", "gender", "activity", "is_traversing",
	"is_person_with_impairment", "is_in_apparent_illicit_activity", "is_person_without_housing",
}
