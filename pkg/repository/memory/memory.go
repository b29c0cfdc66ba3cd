package memory

import (
	"github.com/secmon-lab/onramp/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-memory repository for development and tests
type Memory struct {
	introduction *introductionRepository
	user         *userRepository
	team         *teamRepository
	checkpoint   *checkpointRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		introduction: newIntroductionRepository(),
		user:         newUserRepository(),
		team:         newTeamRepository(),
		checkpoint:   newCheckpointRepository(),
	}
}

func (m *Memory) Introduction() interfaces.IntroductionRepository {
	return m.introduction
}

func (m *Memory) User() interfaces.UserRepository {
	return m.user
}

func (m *Memory) Team() interfaces.TeamRepository {
	return m.team
}

func (m *Memory) Checkpoint() interfaces.CheckpointRepository {
	return m.checkpoint
}

func (m *Memory) Close() error {
	return nil
}
