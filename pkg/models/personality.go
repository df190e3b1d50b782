package models

// Personality holds the six bounded behavioural traits of a conversational
// agent. Each trait lives in 1..10; zero means "not set yet". A personality
// is either fully populated or it blocks forward navigation in the wizard:
// partially filled trait sets are never valid.
type Personality struct {
	Formality     int `json:"formality"     validate:"omitempty,min=1,max=10"`
	Creativity    int `json:"creativity"    validate:"omitempty,min=1,max=10"`
	Empathy       int `json:"empathy"       validate:"omitempty,min=1,max=10"`
	Assertiveness int `json:"assertiveness" validate:"omitempty,min=1,max=10"`
	Humor         int `json:"humor"         validate:"omitempty,min=1,max=10"`
	Detail        int `json:"detail"        validate:"omitempty,min=1,max=10"`
}

const (
	TraitMin = 1
	TraitMax = 10
)

func (p *Personality) traits() []int {
	return []int{p.Formality, p.Creativity, p.Empathy, p.Assertiveness, p.Humor, p.Detail}
}

// Complete reports whether all six traits are set and within bounds.
func (p *Personality) Complete() bool {
	if p == nil {
		return false
	}

	for _, t := range p.traits() {
		if t < TraitMin || t > TraitMax {
			return false
		}
	}

	return true
}

// Empty reports whether no trait has been touched at all. An empty
// personality is allowed on a draft; a partial one is not.
func (p *Personality) Empty() bool {
	if p == nil {
		return true
	}

	for _, t := range p.traits() {
		if t != 0 {
			return false
		}
	}

	return true
}
