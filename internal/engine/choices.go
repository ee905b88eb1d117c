package engine

// Choices is the canonical order used by Evaluate. Do not reorder.
var Choices = []Choice{
	Rock,
	Paper,
	Scissors,
}

func choiceIndex(c Choice) (int, bool) {
	for i, known := range Choices {
		if known == c {
			return i, true
		}
	}
	return 0, false
}
