package samples

// Customer is the input to CreditScore.
type Customer struct {
	Income          int  `json:"income"`
	HasGoodStanding bool `json:"hasGoodStanding"`
	Age             int  `json:"age"`
}

const baseCreditScore = 500

// CreditScore scores a customer: 500 to start, +100 for income above
// 50000, +100 for good standing or -200 otherwise, and +50 over age 60.
func CreditScore(c Customer) int {
	score := baseCreditScore
	if c.Income > 50000 {
		score += 100
	}
	if c.HasGoodStanding {
		score += 100
	} else {
		score -= 200
	}
	if c.Age > 60 {
		score += 50
	}
	return score
}
