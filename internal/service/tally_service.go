package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pracas_backend/internal/access"
	"pracas_backend/internal/model"
	"pracas_backend/internal/repository"
	"pracas_backend/internal/util"

	"gorm.io/gorm"
)

// swagger:model TallyInput
type TallyInput struct {
	Observer         string     `json:"observer" binding:"required"`
	StartDate        time.Time  `json:"startDate" binding:"required"`
	EndDate          *time.Time `json:"endDate"`
	AnimalsAmount    *int       `json:"animalsAmount"`
	Temperature      *float64   `json:"temperature"`
	WeatherCondition string     `json:"weatherCondition" binding:"required"`
}

// swagger:model PersonInput
type PersonInput struct {
	AgeGroup                    string `json:"ageGroup" binding:"required"`
	Gender                      string `json:"gender" binding:"required"`
	Activity                    string `json:"activity" binding:"required"`
	IsTraversing                bool   `json:"isTraversing"`
	IsPersonWithImpairment      bool   `json:"isPersonWithImpairment"`
	IsInApparentIllicitActivity bool   `json:"isInApparentIllicitActivity"`
	IsPersonWithoutHousing      bool   `json:"isPersonWithoutHousing"`
	Quantity                    int    `json:"quantity"`
}

// TallySummary totals the people counted in a tally.
type TallySummary struct {
	TallyID           uint                   `json:"tallyId"`
	Total             int                    `json:"total"`
	ByGender          map[model.Gender]int   `json:"byGender"`
	ByAgeGroup        map[model.AgeGroup]int `json:"byAgeGroup"`
	ByActivity        map[model.Activity]int `json:"byActivity"`
	Traversing        int                    `json:"traversing"`
	WithImpairment    int                    `json:"withImpairment"`
	InIllicitActivity int                    `json:"inIllicitActivity"`
	WithoutHousing    int                    `json:"withoutHousing"`
}

type TallyService struct {
	TallyRepo    *repository.TallyRepository
	LocationRepo *repository.LocationRepository
}

func NewTallyService(tallyRepo *repository.TallyRepository, locationRepo *repository.LocationRepository) *TallyService {
	return &TallyService{TallyRepo: tallyRepo, LocationRepo: locationRepo}
}

func oneOf[T ~string](value string, allowed ...T) (T, bool) {
	for _, a := range allowed {
		if string(a) == value {
			return a, true
		}
	}
	var zero T
	return zero, false
}

func (in TallyInput) validate() error {
	verr := util.NewValidationError()
	if n := len(strings.TrimSpace(in.Observer)); n == 0 || n > 255 {
		verr.Add("observer", "must have between 1 and 255 characters")
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		verr.Add("endDate", "must not be before the start date")
	}
	if in.AnimalsAmount != nil && *in.AnimalsAmount < 0 {
		verr.Add("animalsAmount", "must not be negative")
	}
	if _, ok := oneOf(in.WeatherCondition, model.WeatherSunny, model.WeatherCloudy); !ok {
		verr.Add("weatherCondition", "unknown weather condition")
	}
	return verr.Err()
}

func (s *TallyService) Create(p access.Principal, locationID uint, in TallyInput) (*model.Tally, error) {
	if err := authorize(p, roles(access.TallyEditor, access.TallyManager)); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	exists, err := s.LocationRepo.Exists(locationID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("location %d: %w", locationID, util.ErrNotFound)
	}

	t := &model.Tally{
		LocationID:       locationID,
		UserID:           p.UserID,
		Observer:         strings.TrimSpace(in.Observer),
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		AnimalsAmount:    in.AnimalsAmount,
		Temperature:      in.Temperature,
		WeatherCondition: model.WeatherCondition(in.WeatherCondition),
	}
	if err := s.TallyRepo.Create(t); err != nil {
		return nil, fmt.Errorf("create tally: %w", err)
	}
	return t, nil
}

func (s *TallyService) Get(p access.Principal, id uint) (*model.Tally, error) {
	if err := authorize(p, groups(access.GroupTally)); err != nil {
		return nil, err
	}
	t, err := s.TallyRepo.FindByID(id)
	return t, lookup("tally", err)
}

func (s *TallyService) List(p access.Principal, locationID uint) ([]model.Tally, error) {
	if err := authorize(p, groups(access.GroupTally)); err != nil {
		return nil, err
	}
	return s.TallyRepo.ListByLocation(locationID)
}

func (in PersonInput) person(tallyID uint) (*model.TallyPerson, error) {
	verr := util.NewValidationError()
	age, ok := oneOf(in.AgeGroup, model.AgeChild, model.AgeTeen, model.AgeAdult, model.AgeElderly)
	if !ok {
		verr.Add("ageGroup", "unknown age group")
	}
	gender, ok := oneOf(in.Gender, model.GenderMale, model.GenderFemale)
	if !ok {
		verr.Add("gender", "unknown gender")
	}
	activity, ok := oneOf(in.Activity, model.ActivitySedentary, model.ActivityWalking, model.ActivityStrenuous)
	if !ok {
		verr.Add("activity", "unknown activity")
	}
	quantity := in.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		verr.Add("quantity", "must be at least 1")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	return &model.TallyPerson{
		TallyID:                     tallyID,
		AgeGroup:                    age,
		Gender:                      gender,
		Activity:                    activity,
		IsTraversing:                in.IsTraversing,
		IsPersonWithImpairment:      in.IsPersonWithImpairment,
		IsInApparentIllicitActivity: in.IsInApparentIllicitActivity,
		IsPersonWithoutHousing:      in.IsPersonWithoutHousing,
		Quantity:                    quantity,
	}, nil
}

// AddPeople increments the counter of one person profile and returns the new
// totals. A tally outside the location is reported as ErrTallyNotInLocation.
func (s *TallyService) AddPeople(p access.Principal, locationID, tallyID uint, in PersonInput) (*TallySummary, error) {
	if err := authorize(p, roles(access.TallyEditor, access.TallyManager)); err != nil {
		return nil, err
	}
	if _, err := s.TallyRepo.FindInLocation(locationID, tallyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tally %d, location %d: %w", tallyID, locationID, util.ErrTallyNotInLocation)
		}
		return nil, err
	}
	person, err := in.person(tallyID)
	if err != nil {
		return nil, err
	}
	if err := s.TallyRepo.AddPeople(person); err != nil {
		return nil, fmt.Errorf("add people to tally %d: %w", tallyID, err)
	}
	t, err := s.TallyRepo.FindByID(tallyID)
	if err != nil {
		return nil, lookup("tally", err)
	}
	return Summarize(t), nil
}

func (s *TallyService) Summary(p access.Principal, id uint) (*TallySummary, error) {
	t, err := s.Get(p, id)
	if err != nil {
		return nil, err
	}
	return Summarize(t), nil
}

func (s *TallyService) Finish(p access.Principal, id uint, end time.Time) error {
	if err := authorize(p, roles(access.TallyEditor, access.TallyManager)); err != nil {
		return err
	}
	t, err := s.TallyRepo.FindByID(id)
	if err != nil {
		return lookup("tally", err)
	}
	t.EndDate = &end
	return s.TallyRepo.SetEndDate(t)
}

func (s *TallyService) Delete(p access.Principal, id uint) error {
	if err := authorize(p, roles(access.TallyManager)); err != nil {
		return err
	}
	return lookup("tally", s.TallyRepo.Delete(id))
}

func Summarize(t *model.Tally) *TallySummary {
	sum := &TallySummary{
		TallyID:    t.ID,
		ByGender:   make(map[model.Gender]int),
		ByAgeGroup: make(map[model.AgeGroup]int),
		ByActivity: make(map[model.Activity]int),
	}
	for _, person := range t.People {
		n := person.Quantity
		sum.Total += n
		sum.ByGender[person.Gender] += n
		sum.ByAgeGroup[person.AgeGroup] += n
		sum.ByActivity[person.Activity] += n
		if person.IsTraversing {
			sum.Traversing += n
		}
		if person.IsPersonWithImpairment {
			sum.WithImpairment += n
		}
		if person.IsInApparentIllicitActivity {
			sum.InIllicitActivity += n
		}
		if person.IsPersonWithoutHousing {
			sum.WithoutHousing += n
		}
	}
	return sum
}
