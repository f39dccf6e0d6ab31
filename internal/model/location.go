package model

// Brazilian states accepted for cities.
var BrazilianStates = []string{
	"Acre", "Alagoas", "Amapá", "Amazonas", "Bahia", "Ceará", "Distrito Federal",
	"Espirito Santo", "Goiás", "Maranhão", "Mato Grosso", "Mato Grosso do Sul",
	"Minas Gerais", "Pará", "Paraíba", "Paraná", "Pernambuco", "Piauí",
	"Rio de Janeiro", "Rio Grande do Norte", "Rio Grande do Sul", "Rondônia",
	"Roraima", "Santa Catarina", "São Paulo", "Sergipe", "Tocantins",
}

// swagger:model City
type City struct {
	BaseModel
	Name  string `gorm:"size:255;not null;uniqueIndex:idx_city_name_state" json:"name"`
	State string `gorm:"size:64;not null;uniqueIndex:idx_city_name_state" json:"state"`
}

func (City) TableName() string {
	return "cities"
}

type AdministrativeLevel string

const (
	NarrowUnit       AdministrativeLevel = "NARROW"
	IntermediateUnit AdministrativeLevel = "INTERMEDIATE"
	BroadUnit        AdministrativeLevel = "BROAD"
)

// AdministrativeUnit is a district-like division of a city at one of three
// levels.
type AdministrativeUnit struct {
	BaseModel
	CityID uint                `gorm:"not null;uniqueIndex:idx_admin_unit" json:"cityId"`
	Level  AdministrativeLevel `gorm:"size:16;not null;uniqueIndex:idx_admin_unit" json:"level"`
	Name   string              `gorm:"size:255;not null;uniqueIndex:idx_admin_unit" json:"name"`
}

func (AdministrativeUnit) TableName() string {
	return "administrative_units"
}

type LocationType struct {
	BaseModel
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
}

func (LocationType) TableName() string {
	return "location_types"
}

type LocationCategory struct {
	BaseModel
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
}

func (LocationCategory) TableName() string {
	return "location_categories"
}

// swagger:model Location
// The polygon column is managed with raw spatial SQL and is not mapped here.
type Location struct {
	BaseModel
	Name                string   `gorm:"size:255;not null;index" json:"name"`
	PopularName         *string  `gorm:"size:255" json:"popularName"`
	FirstStreet         string   `gorm:"size:255;not null" json:"firstStreet"`
	SecondStreet        *string  `gorm:"size:255" json:"secondStreet"`
	IsPark              bool     `json:"isPark"`
	Notes               *string  `gorm:"type:text" json:"notes"`
	CreationYear        *int     `json:"creationYear"`
	LastMaintenanceYear *int     `json:"lastMaintenanceYear"`
	OverseeingMayor     *string  `gorm:"size:255" json:"overseeingMayor"`
	Legislation         *string  `gorm:"size:255" json:"legislation"`
	UsableArea          *float64 `json:"usableArea"`
	LegalArea           *float64 `json:"legalArea"`
	Incline             *float64 `json:"incline"`
	InactiveNotFound    bool     `json:"inactiveNotFound"`
	PolygonArea         *float64 `json:"polygonArea"`
	ShapefileURL        *string  `gorm:"size:512" json:"shapefileUrl,omitempty"`

	CityID                           *uint               `gorm:"index" json:"cityId"`
	City                             *City               `json:"city,omitempty"`
	NarrowAdministrativeUnitID       *uint               `json:"narrowAdministrativeUnitId"`
	NarrowAdministrativeUnit         *AdministrativeUnit `json:"narrowAdministrativeUnit,omitempty"`
	IntermediateAdministrativeUnitID *uint               `json:"intermediateAdministrativeUnitId"`
	IntermediateAdministrativeUnit   *AdministrativeUnit `json:"intermediateAdministrativeUnit,omitempty"`
	BroadAdministrativeUnitID        *uint               `json:"broadAdministrativeUnitId"`
	BroadAdministrativeUnit          *AdministrativeUnit `json:"broadAdministrativeUnit,omitempty"`
	TypeID                           *uint               `json:"typeId"`
	Type                             *LocationType       `json:"type,omitempty"`
	CategoryID                       *uint               `json:"categoryId"`
	Category                         *LocationCategory   `json:"category,omitempty"`
}

func (Location) TableName() string {
	return "locations"
}
