package persona

import "github.com/koscakluka/ema-persona/core/conversation"

const Welcome = "Welcome to the personality test! Let's chat for a moment. " +
	"Answer a few questions and you will get your personality tendency."

// Question categories, in the order they are asked.
const (
	CategoryIdentity     = "identity_exploration"
	CategoryValues       = "value_discovery"
	CategoryRelationship = "relationship_mapping"
	CategoryMotivation   = "motivation_uncovering"
	CategoryPressure     = "fear_acknowledgment"
	CategoryVision       = "vision_sharing"
)

// Questions is the default question bank.
var Questions = QuestionBank{
	{
		ID:       "friend-word",
		Category: CategoryIdentity,
		Prompt:   "If a friend introduced you, which word would they use? A rational B gentle C fun D reliable",
	},
	{
		ID:       "decision-priority",
		Category: CategoryValues,
		Prompt:   "What matters most to you when making an important decision? A facts B feelings C opportunities D stability",
	},
	{
		ID:       "team-role",
		Category: CategoryRelationship,
		Prompt:   "In a team you are more of a? A planner B coordinator C idea generator D executor",
	},
	{
		ID:       "motivation",
		Category: CategoryMotivation,
		Prompt:   "Which setting motivates you most? A quiet reflection B smooth collaboration C fresh challenges D clear order",
	},
	{
		ID:       "under-pressure",
		Category: CategoryPressure,
		Prompt:   "Under pressure you tend to? A analyze the cause B look for support C change perspective D stick to the plan",
	},
	{
		ID:       "weekend",
		Category: CategoryVision,
		Prompt:   "How do you prefer to spend a weekend? A learning something B time with others C exploring something new D relaxing at home",
	},
}

// QuestionBank is a fixed list of questions; step 1 is the first entry.
type QuestionBank []conversation.Question

func (b QuestionBank) Question(step int) (conversation.Question, bool) {
	if step < 1 || step > len(b) {
		return conversation.Question{}, false
	}
	return b[step-1], true
}

func (b QuestionBank) Len() int { return len(b) }
