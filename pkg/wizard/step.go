package wizard

// Step is the wizard position. Zero means the wizard has not started: the
// agent kind has not been chosen yet. Steps 1..7 are the active pages, with
// StepTestDeploy terminal.
type Step int

const (
	StepNone       Step = 0
	StepBasicInfo  Step = 1 // name, goal, description, personality
	StepTasks      Step = 2
	StepTools      Step = 3
	StepKnowledge  Step = 4
	StepAccess     Step = 5 // access control and task permissions
	StepModel      Step = 6 // model selection and guardrails
	StepTestDeploy Step = 7
)

// FirstStep and LastStep bound the active range.
const (
	FirstStep = StepBasicInfo
	LastStep  = StepTestDeploy
)

// Valid reports whether s is an active wizard step.
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

func (s Step) String() string {
	switch s {
	case StepNone:
		return "none"
	case StepBasicInfo:
		return "basic-info"
	case StepTasks:
		return "tasks"
	case StepTools:
		return "tools"
	case StepKnowledge:
		return "knowledge"
	case StepAccess:
		return "access"
	case StepModel:
		return "model"
	case StepTestDeploy:
		return "test-deploy"
	default:
		return "unknown"
	}
}
