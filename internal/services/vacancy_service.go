package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"brigade-service/internal/domain/vacancy"
	"brigade-service/internal/repository"
	brigade_errors "brigade-service/pkg/errors"
)

type VacancyService struct {
	vacancies repository.VacancyRepository
}

func NewVacancyService(vacancies repository.VacancyRepository) *VacancyService {
	return &VacancyService{vacancies: vacancies}
}

type VacancyInput struct {
	Title          string
	Description    string
	ContactPhone   string
	Requirements   []string
	Salary         string
	EmploymentType string
	EducationLevel string
}

type VacancyView struct {
	ID             uint      `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	PostedDate     time.Time `json:"postedDate"`
	ContactPhone   string    `json:"contactPhone"`
	Requirements   []string  `json:"requirements"`
	Salary         string    `json:"salary"`
	EmploymentType string    `json:"employmentType"`
	EducationLevel string    `json:"educationLevel"`
}

func (s *VacancyService) List(ctx context.Context) ([]VacancyView, error) {
	items, err := s.vacancies.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]VacancyView, 0, len(items))
	for _, v := range items {
		result = append(result, toVacancyView(v))
	}
	return result, nil
}

func (s *VacancyService) Get(ctx context.Context, id uint) (VacancyView, error) {
	v, err := s.vacancies.GetByID(ctx, id)
	if err != nil {
		return VacancyView{}, err
	}
	return toVacancyView(v), nil
}

func (s *VacancyService) Create(ctx context.Context, in VacancyInput) (VacancyView, error) {
	if err := validateVacancy(in); err != nil {
		return VacancyView{}, err
	}
	v := &vacancy.Vacancy{}
	applyVacancyInput(v, in)
	if err := s.vacancies.Create(ctx, v); err != nil {
		return VacancyView{}, err
	}
	return toVacancyView(*v), nil
}

func (s *VacancyService) Update(ctx context.Context, id uint, in VacancyInput) (VacancyView, error) {
	if err := validateVacancy(in); err != nil {
		return VacancyView{}, err
	}
	v, err := s.vacancies.GetByID(ctx, id)
	if err != nil {
		return VacancyView{}, err
	}
	applyVacancyInput(&v, in)
	if err := s.vacancies.Update(ctx, v); err != nil {
		return VacancyView{}, err
	}
	return toVacancyView(v), nil
}

func (s *VacancyService) Delete(ctx context.Context, id uint) error {
	return s.vacancies.Delete(ctx, id)
}

func applyVacancyInput(v *vacancy.Vacancy, in VacancyInput) {
	v.Title = strings.TrimSpace(in.Title)
	v.Description = in.Description
	v.ContactPhone = strings.TrimSpace(in.ContactPhone)
	v.Requirements = cleanRequirements(in.Requirements)
	v.Salary = in.Salary
	v.EmploymentType = in.EmploymentType
	v.EducationLevel = in.EducationLevel
}

func cleanRequirements(in []string) []string {
	out := make([]string, 0, len(in))
	for _, r := range in {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func toVacancyView(v vacancy.Vacancy) VacancyView {
	reqs := v.Requirements
	if reqs == nil {
		reqs = []string{}
	}
	return VacancyView{
		ID:             v.ID,
		Title:          v.Title,
		Description:    v.Description,
		PostedDate:     v.PostedDate,
		ContactPhone:   v.ContactPhone,
		Requirements:   reqs,
		Salary:         v.Salary,
		EmploymentType: v.EmploymentType,
		EducationLevel: v.EducationLevel,
	}
}

func validateVacancy(in VacancyInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", brigade_errors.ErrInvalidInput)
	}
	return nil
}
