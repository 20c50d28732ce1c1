package sanitizer

const (
	MinLeadScore     = 0
	MaxLeadScore     = 100
	DefaultLeadScore = 50
)

func ClampLeadScore(score int) int {
	if score < MinLeadScore {
		return MinLeadScore
	}
	if score > MaxLeadScore {
		return MaxLeadScore
	}
	return score
}
