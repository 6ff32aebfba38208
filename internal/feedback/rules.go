package feedback

import "strings"

// Criterion is one rubric dimension for a lesson step: a keyword list plus
// the messages emitted depending on whether the response clears the
// acceptance threshold.
type Criterion struct {
	Name           string
	Keywords       []string
	GoodFeedback   string
	BadFeedback    string
	ExtraGood      string
	ImprovementTip string
}

// RuleTable holds the ordered criteria for one lesson. Order matters: the
// emitted feedback lines follow it.
type RuleTable struct {
	Criteria []Criterion
}

// lessonRules maps a parent lesson ID to its rubric. Step nodes inherit the
// rubric of their parent lesson (e.g. lesson_2_step_3 uses lesson_2 rules).
var lessonRules = map[string]RuleTable{
	"lesson_2": { // Design Thinking
		Criteria: []Criterion{
			{
				Name:           "Empathy",
				Keywords:       []string{"feel", "experience", "perspective", "user", "interview", "need", "challenge", "struggle", "pain point", "emotion", "frustration", "satisfaction", "desire", "motivation"},
				GoodFeedback:   "✅ Excellent job showing empathy and understanding your user's perspective!",
				BadFeedback:    "⚠️ Try to dig deeper into how your user feels and their experiences.",
				ExtraGood:      "💡 You've shown great insight into the emotional aspects of the user experience.",
				ImprovementTip: "💡 Consider asking 'why' questions to understand the underlying emotions and motivations.",
			},
			{
				Name:           "Problem Definition",
				Keywords:       []string{"problem statement", "needs", "insights", "define", "challenge", "opportunity", "context", "situation", "current state", "pain points", "goals", "objectives"},
				GoodFeedback:   "✅ Clear problem definition that combines user needs and insights!",
				BadFeedback:    "⚠️ Make sure your problem statement includes both user needs and insights.",
				ExtraGood:      "💡 Your problem statement effectively bridges user needs with opportunities for innovation.",
				ImprovementTip: "💡 Try using the format: '[User] needs a way to [action] because [insight]'",
			},
			{
				Name:           "Ideation",
				Keywords:       []string{"solution", "idea", "creative", "brainstorm", "alternative", "possibility", "innovation", "concept", "approach", "strategy", "option", "proposal"},
				GoodFeedback:   "✅ Great variety of creative solutions!",
				BadFeedback:    "⚠️ Try generating more diverse ideas - think outside the box!",
				ExtraGood:      "💡 Your ideas show excellent range and creativity in problem-solving.",
				ImprovementTip: "💡 Consider combining different ideas or drawing inspiration from other fields.",
			},
			{
				Name:           "Prototyping",
				Keywords:       []string{"prototype", "test", "mock", "sketch", "wireframe", "design", "iteration", "feedback", "user testing", "validation", "experiment", "trial"},
				GoodFeedback:   "✅ Good job creating a testable prototype!",
				BadFeedback:    "⚠️ Consider making your prototype more concrete and testable.",
				ExtraGood:      "💡 Your prototype effectively demonstrates key features for testing.",
				ImprovementTip: "💡 Think about what specific aspects you want to test with users.",
			},
		},
	},
	"lesson_3": { // Business Modelling
		Criteria: []Criterion{
			{
				Name:           "Value Proposition",
				Keywords:       []string{"unique", "offer", "value", "benefit", "solution", "different", "competitive advantage", "differentiation", "customer value", "key benefits", "selling point"},
				GoodFeedback:   "✅ Strong value proposition that clearly defines your unique offering!",
				BadFeedback:    "⚠️ Make your value proposition more specific and unique.",
				ExtraGood:      "💡 Your value proposition effectively communicates both functional and emotional benefits.",
				ImprovementTip: "💡 Consider what makes your offering different from existing solutions.",
			},
			{
				Name:           "Customer Segments",
				Keywords:       []string{"segment", "customer", "target", "market", "audience", "demographic", "persona", "user profile", "niche", "customer type", "buyer persona"},
				GoodFeedback:   "✅ Well-defined customer segments with clear characteristics!",
				BadFeedback:    "⚠️ Try to be more specific about who your customers are.",
				ExtraGood:      "💡 You've shown deep understanding of your target market's characteristics.",
				ImprovementTip: "💡 Include demographics, behaviors, and needs in your segment description.",
			},
			{
				Name:           "Revenue Model",
				Keywords:       []string{"revenue", "pricing", "monetization", "cost", "profit", "subscription", "freemium", "business model", "income stream", "pricing strategy", "revenue stream"},
				GoodFeedback:   "✅ Clear and sustainable revenue model!",
				BadFeedback:    "⚠️ Consider different ways to generate revenue.",
				ExtraGood:      "💡 Your revenue model shows good alignment with customer value and market dynamics.",
				ImprovementTip: "💡 Think about recurring revenue opportunities and pricing tiers.",
			},
			{
				Name:           "Business Canvas",
				Keywords:       []string{"canvas", "partnership", "channel", "resource", "activity", "relationship", "key partners", "value chain", "distribution", "customer channel", "key activities"},
				GoodFeedback:   "✅ Comprehensive business model canvas with all key elements!",
				BadFeedback:    "⚠️ Make sure to address all nine elements of the business model canvas.",
				ExtraGood:      "💡 Your canvas shows strong interconnections between different elements.",
				ImprovementTip: "💡 Consider how each element supports your value proposition.",
			},
		},
	},
	"lesson_4": { // Market Thinking
		Criteria: []Criterion{
			{
				Name:           "Product Market Fit",
				Keywords:       []string{"fit", "need", "solution", "problem", "market", "validation", "customer need", "market demand", "product solution", "value match", "market opportunity"},
				GoodFeedback:   "✅ Strong evidence of product-market fit!",
				BadFeedback:    "⚠️ Demonstrate how your product specifically fits market needs.",
				ExtraGood:      "💡 You've shown clear alignment between product features and market needs.",
				ImprovementTip: "💡 Include specific examples of how your product solves market problems.",
			},
			{
				Name:           "Channel Strategy",
				Keywords:       []string{"channel", "reach", "marketing", "distribution", "acquisition", "go-to-market", "customer reach", "marketing channel", "distribution strategy", "customer acquisition"},
				GoodFeedback:   "✅ Well-thought-out channel strategy!",
				BadFeedback:    "⚠️ Consider more specific channels to reach your target market.",
				ExtraGood:      "💡 Your channel strategy shows good understanding of customer behavior.",
				ImprovementTip: "💡 Think about the customer journey through each channel.",
			},
			{
				Name:           "Growth Metrics",
				Keywords:       []string{"cac", "ltv", "retention", "conversion", "metrics", "growth", "kpi", "measurement", "analytics", "performance indicator", "growth rate"},
				GoodFeedback:   "✅ Good understanding of key growth metrics!",
				BadFeedback:    "⚠️ Include specific metrics to measure your growth.",
				ExtraGood:      "💡 Your metrics framework effectively tracks business health.",
				ImprovementTip: "💡 Consider both leading and lagging indicators for growth.",
			},
		},
	},
	"lesson_5": { // User Thinking
		Criteria: []Criterion{
			{
				Name:           "Emotional Triggers",
				Keywords:       []string{"emotion", "feel", "trigger", "motivation", "desire", "need", "psychological", "emotional response", "behavioral trigger", "emotional driver", "user emotion"},
				GoodFeedback:   "✅ Excellent identification of emotional triggers!",
				BadFeedback:    "⚠️ Dig deeper into the emotional drivers of user behavior.",
				ExtraGood:      "💡 You've shown excellent understanding of psychological motivators.",
				ImprovementTip: "💡 Consider both positive and negative emotional triggers.",
			},
			{
				Name:           "Habit Formation",
				Keywords:       []string{"habit", "hook", "routine", "behavior", "pattern", "loop", "trigger", "action", "reward", "investment", "behavioral loop"},
				GoodFeedback:   "✅ Strong understanding of habit-forming mechanics!",
				BadFeedback:    "⚠️ Consider how to make your product more habit-forming.",
				ExtraGood:      "💡 Your habit loop design effectively drives repeated engagement.",
				ImprovementTip: "💡 Think about variable rewards to increase engagement.",
			},
			{
				Name:           "User Psychology",
				Keywords:       []string{"psychology", "cognitive", "bias", "decision", "behavior", "mental model", "cognitive bias", "user behavior", "decision making", "behavioral pattern"},
				GoodFeedback:   "✅ Good application of psychological principles!",
				BadFeedback:    "⚠️ Include more psychological insights in your analysis.",
				ExtraGood:      "💡 Your analysis shows deep understanding of user psychology.",
				ImprovementTip: "💡 Consider common cognitive biases in user behavior.",
			},
		},
	},
	"lesson_6": { // Project Thinking
		Criteria: []Criterion{
			{
				Name:           "Project Scope",
				Keywords:       []string{"scope", "goal", "objective", "deliverable", "outcome", "project boundary", "success criteria", "project goal", "milestone", "target outcome"},
				GoodFeedback:   "✅ Clear and well-defined project scope!",
				BadFeedback:    "⚠️ Make your project scope more specific and measurable.",
				ExtraGood:      "💡 Your scope effectively balances ambition with feasibility.",
				ImprovementTip: "💡 Use SMART criteria to define your objectives.",
			},
			{
				Name:           "Task Management",
				Keywords:       []string{"task", "milestone", "sprint", "timeline", "priority", "work breakdown", "task planning", "time management", "task priority", "work organization"},
				GoodFeedback:   "✅ Well-organized tasks and milestones!",
				BadFeedback:    "⚠️ Break down your tasks into smaller, manageable pieces.",
				ExtraGood:      "💡 Your task organization shows excellent project planning.",
				ImprovementTip: "💡 Consider dependencies between tasks when planning.",
			},
			{
				Name:           "Agile Principles",
				Keywords:       []string{"agile", "iterate", "adapt", "flexible", "review", "retrospective", "continuous improvement", "adaptation", "sprint review", "agile methodology"},
				GoodFeedback:   "✅ Good application of Agile principles!",
				BadFeedback:    "⚠️ Consider how to make your process more iterative and adaptive.",
				ExtraGood:      "💡 Your approach shows strong alignment with Agile values.",
				ImprovementTip: "💡 Include regular retrospectives for continuous improvement.",
			},
		},
	},
}

// RulesFor returns the rubric for a lesson node. Step nodes fall back to
// their parent lesson's rubric.
func RulesFor(lessonID string) (RuleTable, bool) {
	if rules, ok := lessonRules[lessonID]; ok {
		return rules, true
	}
	if i := strings.Index(lessonID, "_step_"); i > 0 {
		rules, ok := lessonRules[lessonID[:i]]
		return rules, ok
	}
	return RuleTable{}, false
}
