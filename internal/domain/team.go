package domain

import "github.com/google/uuid"

// MaxTeamPlayers caps each team's roster.
const MaxTeamPlayers = 4

// TeamID identifies one of the two sides of a game.
type TeamID string

const (
	Team1 TeamID = "team1"
	Team2 TeamID = "team2"
)

// TeamIDs lists both sides in display order.
var TeamIDs = []TeamID{Team1, Team2}

// ParseTeamID validates a caller-supplied team identifier.
func ParseTeamID(s string) (TeamID, error) {
	id := TeamID(s)
	if !id.Valid() {
		return "", ErrInvalidTeamID
	}
	return id, nil
}

func (t TeamID) Valid() bool {
	return t == Team1 || t == Team2
}

// Opponent returns the other side.
func (t TeamID) Opponent() TeamID {
	if t == Team1 {
		return Team2
	}
	return Team1
}

func (t TeamID) DisplayName() string {
	if t == Team1 {
		return "Team 1"
	}
	return "Team 2"
}

// TeamPhase tracks a team through its team-turns.
type TeamPhase string

const (
	// TeamPhaseIdle: no team-turn granted since the game was created.
	TeamPhaseIdle TeamPhase = "idle"
	// TeamPhaseActive: members currently hold turns.
	TeamPhaseActive TeamPhase = "active"
	// TeamPhaseFinished: completed a team-turn and waiting for the opponent.
	TeamPhaseFinished TeamPhase = "finished"
)

// Team holds the running aggregates for one side of a lobby's game.
type Team struct {
	LobbyID              uuid.UUID `json:"lobbyId" gorm:"type:uuid;primaryKey"`
	TeamID               TeamID    `json:"teamId" gorm:"type:varchar(10);primaryKey"`
	TeamTotalScore       float64   `json:"teamTotalScore" gorm:"not null"`
	TeamTurnAverageScore float64   `json:"teamTurnAverageScore" gorm:"not null"`
	TeamTurnEndCount     int       `json:"teamTurnEndCount" gorm:"not null"`
	Phase                TeamPhase `json:"phase" gorm:"type:varchar(10);not null"`
}

// TableName returns the table name for GORM
func (Team) TableName() string {
	return "teams"
}

func NewTeam(lobbyID uuid.UUID, id TeamID) *Team {
	return &Team{LobbyID: lobbyID, TeamID: id, Phase: TeamPhaseIdle}
}

// Reset zeroes the aggregates for a fresh game.
func (t *Team) Reset() {
	t.TeamTotalScore = 0
	t.TeamTurnAverageScore = 0
	t.TeamTurnEndCount = 0
	t.Phase = TeamPhaseIdle
}
