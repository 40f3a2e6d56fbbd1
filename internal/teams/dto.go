package teams

import (
	"github.com/pimtong/fieldworks-backend/pkg/db/models"
)

// CreateTeamInput captures the fields required to create a crew.
type CreateTeamInput struct {
	Name  string
	Color string
}

// UpdateTeamInput captures the mutable crew fields. Nil means unchanged.
type UpdateTeamInput struct {
	Name  *string
	Color *string
}

// MemberDTO is the compact member listing shown under a team.
type MemberDTO struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// TeamDTO is the outward representation of a crew.
type TeamDTO struct {
	ID      uint        `json:"id"`
	Name    string      `json:"name"`
	Color   string      `json:"color"`
	Members []MemberDTO `json:"members,omitempty"`
}

// FromModel maps a persisted team onto the DTO shape.
func FromModel(team *models.Team) *TeamDTO {
	if team == nil {
		return nil
	}
	dto := &TeamDTO{
		ID:    team.ID,
		Name:  team.Name,
		Color: team.Color,
	}
	for _, member := range team.Members {
		dto.Members = append(dto.Members, MemberDTO{
			ID:       member.ID,
			Username: member.Username,
			FullName: member.FullName,
			Role:     member.Role.String(),
			IsActive: member.IsActive,
		})
	}
	return dto
}
