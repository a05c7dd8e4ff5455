package structs

type CreateBattleRequest struct {
	Question        string `json:"question" binding:"required"`
	Model1          string `json:"model1" binding:"required"`
	Model2          string `json:"model2" binding:"required"`
	Model1Response  string `json:"model1Response"`
	Model2Response  string `json:"model2Response"`
	DurationMinutes int    `json:"duration"`
}

// UpdateBattleRequest carries a partial update of the mutable battle fields;
// nil fields are left unchanged.
type UpdateBattleRequest struct {
	Model1Votes    *int      `json:"model1Votes"`
	Model2Votes    *int      `json:"model2Votes"`
	TotalVotes     *int      `json:"totalVotes"`
	Participants   *[]string `json:"participants"`
	IsActive       *bool     `json:"isActive"`
	Model1Response *string   `json:"model1Response"`
	Model2Response *string   `json:"model2Response"`
}

type VoteRequest struct {
	Model string `json:"model" binding:"required"`
}
