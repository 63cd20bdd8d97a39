package plan

// MaxSceneSeconds is the provider-imposed cap on a single generated clip.
const MaxSceneSeconds = 8.0

// Segment is a sub-interval of a scene with its own prompt and time range.
// Start and End use "MM:SS" notation and are contiguous within a scene.
type Segment struct {
	Start          string `json:"start_time"`
	End            string `json:"end_time"`
	Prompt         string `json:"prompt"`
	CameraMovement string `json:"camera_movement"`
}

// TransitionSpec describes how a scene joins the scene that follows it.
type TransitionSpec struct {
	Type    string  `json:"type"`
	Seconds float64 `json:"duration"`
}

// Scene is one discrete clip in the production plan.
type Scene struct {
	ID              string          `json:"id"`
	Order           int             `json:"order"`
	DurationSeconds float64         `json:"duration_seconds"`
	Segments        []Segment       `json:"segments"`
	MasterPrompt    string          `json:"master_prompt,omitempty"`
	Transition      *TransitionSpec `json:"transition,omitempty"`
}

// DirectorPlan is the complete shot breakdown produced by the planning phase.
// It is immutable once produced; a re-plan replaces it wholesale.
type DirectorPlan struct {
	SubjectPrompt     string  `json:"subject_prompt"`
	EnvironmentPrompt string  `json:"environment_prompt"`
	VisualStyle       string  `json:"visual_style"`
	Reasoning         string  `json:"reasoning"`
	Scenes            []Scene `json:"scenes"`
}

// TotalSeconds returns the summed duration of all scenes.
func (p *DirectorPlan) TotalSeconds() float64 {
	var total float64
	for _, scene := range p.Scenes {
		total += scene.DurationSeconds
	}
	return total
}
