package service

import "github.com/jobpulse/jobpulse/internal/domain/model"

const (
	// minDescriptionLength is the shortest description considered substantive.
	minDescriptionLength = 200
	// minTechnologies is the technology count needed for the full signal.
	minTechnologies = 2
)

// QualityWeights control how much each completeness signal contributes to a
// job's score. Weights should sum to 1 so scores stay within [0, 1].
type QualityWeights struct {
	Salary       float64
	Region       float64
	Description  float64
	Technologies float64
	Experience   float64
}

// DefaultQualityWeights match the thresholds used for the ingestion filter.
func DefaultQualityWeights() QualityWeights {
	return QualityWeights{
		Salary:       0.25,
		Region:       0.15,
		Description:  0.20,
		Technologies: 0.20,
		Experience:   0.20,
	}
}

func (w QualityWeights) zero() bool {
	return w.Salary == 0 && w.Region == 0 && w.Description == 0 &&
		w.Technologies == 0 && w.Experience == 0
}

// QualityScore rates how complete a job posting is. Each present signal
// contributes its weight; a fully populated posting scores the sum of all
// weights.
func QualityScore(job *model.Job, w QualityWeights) float64 {
	var score float64
	if job.HasSalary() {
		score += w.Salary
	}
	if job.RegionID != nil {
		score += w.Region
	}
	if len(job.Description) >= minDescriptionLength {
		score += w.Description
	}
	if len(job.Technologies) >= minTechnologies {
		score += w.Technologies
	}
	if job.Experience != model.ExperienceUnknown {
		score += w.Experience
	}
	return score
}
