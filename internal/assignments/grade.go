package assignments

// LetterGrade maps a score to its letter on the standard campus scale. The
// score is normalized against maxScore first, so a 45/50 still earns an A.
func LetterGrade(score, maxScore int) string {
	if maxScore <= 0 {
		return "F"
	}
	percent := score * 100 / maxScore
	switch {
	case percent >= 90:
		return "A"
	case percent >= 80:
		return "B"
	case percent >= 70:
		return "C"
	case percent >= 60:
		return "D"
	default:
		return "F"
	}
}
