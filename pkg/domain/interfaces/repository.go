package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Introduction() IntroductionRepository
	User() UserRepository
	Team() TeamRepository
	Checkpoint() CheckpointRepository

	Close() error
}
