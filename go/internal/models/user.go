package models

import "encoding/json"

// UserInfo is the subset of the current user's profile the runner reads.
// An empty UserInfo means the lookup failed; callers must tolerate it.
type UserInfo struct {
	ID                 string  `json:"id"`
	Score              float64 `json:"score"`
	ScoreFromReferrals float64 `json:"scoreFromReferrals"`
}

// Balance is the user's total score including referral earnings
func (u UserInfo) Balance() float64 {
	return u.Score + u.ScoreFromReferrals
}

// Empty reports whether no profile data was obtained
func (u UserInfo) Empty() bool {
	return u.ID == ""
}

// UnmarshalJSON accepts the user id as either a JSON string or a number.
func (u *UserInfo) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID                 json.RawMessage `json:"id"`
		Score              float64         `json:"score"`
		ScoreFromReferrals float64         `json:"scoreFromReferrals"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	u.Score = raw.Score
	u.ScoreFromReferrals = raw.ScoreFromReferrals
	u.ID = ""
	if len(raw.ID) == 0 || string(raw.ID) == "null" {
		return nil
	}

	var id string
	if err := json.Unmarshal(raw.ID, &id); err == nil {
		u.ID = id
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(raw.ID, &num); err != nil {
		return err
	}
	u.ID = num.String()
	return nil
}
