package persona

type Tendency string

const (
	Analytical  Tendency = "analytical"
	Harmonizing Tendency = "harmonizing"
	Adventurous Tendency = "adventurous"
	Nurturing   Tendency = "nurturing"
	Leading     Tendency = "leading"
	Creative    Tendency = "creative"
	Stabilizing Tendency = "stabilizing"
	Innovating  Tendency = "innovating"
)

func AllTendencies() []Tendency {
	return []Tendency{Analytical, Harmonizing, Adventurous, Nurturing, Leading, Creative, Stabilizing, Innovating}
}

type Intensity string

const (
	Mild     Intensity = "mild"
	Moderate Intensity = "moderate"
	Strong   Intensity = "strong"
)

func (t Tendency) Title() string {
	switch t {
	case Analytical:
		return "Analytical tendency"
	case Harmonizing:
		return "Harmonizing tendency"
	case Adventurous:
		return "Adventurous tendency"
	case Nurturing:
		return "Nurturing tendency"
	case Leading:
		return "Leading tendency"
	case Creative:
		return "Creative tendency"
	case Stabilizing:
		return "Stabilizing tendency"
	case Innovating:
		return "Innovating tendency"
	default:
		return string(t)
	}
}

// Description describes the tendency as it shows at the given intensity.
func (t Tendency) Description(intensity Intensity) string {
	return t.baseDescription() + "\n\n" + intensity.modifier()
}

func (t Tendency) baseDescription() string {
	switch t {
	case Analytical:
		return "Right now you tend to approach problems with reason and logic. You like to analyze deeply and look for objective truth. " +
			"This helps you make sound decisions, though it can make you seem reserved with your feelings. " +
			"As your experience grows you may develop more intuitive thinking."
	case Harmonizing:
		return "At this stage you care most about harmony between people and working together. You understand how others feel and look for balance and agreement. " +
			"This makes you a good mediator, though you sometimes hold back your own ideas. " +
			"As your confidence grows you will speak up for your own views more readily."
	case Adventurous:
		return "Currently you are eager for new experiences and love to explore. You adapt quickly and think flexibly, " +
			"though you may lack patience for things that need long focus. " +
			"With more life experience you may find a better balance between adventure and stability."
	case Nurturing:
		return "You currently show a strong caring side and put the needs of others first. Your warmth makes the people around you feel safe, " +
			"though you sometimes neglect your own needs. " +
			"By learning to care for yourself you will find a healthier way of giving."
	case Leading:
		return "Right now you show leadership potential and like taking responsibility and guiding others. You are clearly goal oriented, " +
			"though you can come across as too forceful. " +
			"As you gain experience leading you will learn to balance authority with openness."
	case Creative:
		return "Your creativity and artistic talent currently stand out, and you express yourself in unique ways. You are sensitive and imaginative, " +
			"though your moods can swing. " +
			"As you mature you will handle the link between creativity and emotion more easily."
	case Stabilizing:
		return "Currently you value stability and reliability, and others can lean on you. You are loyal and responsible, " +
			"though change may unsettle you. " +
			"By trying new things step by step you will find a balance between stability and adaptability."
	case Innovating:
		return "At this stage your mind is busy and you keep coming up with new ideas and solutions. You like driving change, " +
			"though follow-through is sometimes lacking. " +
			"By building persistence you will turn more of your ideas into real results."
	default:
		return ""
	}
}

// GrowthDirections lists areas the tendency can develop towards.
func (t Tendency) GrowthDirections() []string {
	switch t {
	case Analytical:
		return []string{"emotional intelligence", "intuitive judgement", "interpersonal communication", "accepting uncertainty"}
	case Harmonizing:
		return []string{"a personal stance", "healthy conflict", "decisiveness", "self advocacy"}
	case Adventurous:
		return []string{"focus", "a long term view", "deep thinking", "stable habits"}
	case Nurturing:
		return []string{"self care", "healthy boundaries", "expressing your own needs", "independence"}
	case Leading:
		return []string{"empathy", "inclusive leadership", "listening", "teamwork"}
	case Creative:
		return []string{"steady emotions", "practical skills", "taking criticism", "balancing ideals and reality"}
	case Stabilizing:
		return []string{"embracing change", "flexibility", "innovative thinking", "openness to new things"}
	case Innovating:
		return []string{"execution", "persistence", "focus", "practical ability"}
	default:
		return nil
	}
}

func (i Intensity) modifier() string {
	switch i {
	case Mild:
		return "These traits show gently in you and may only appear in certain situations."
	case Strong:
		return "These traits are very visible in you and are a defining part of your personality."
	default:
		return "These traits show to a moderate degree and are an important part of your personality."
	}
}
