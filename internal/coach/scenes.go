package coach

import (
	"sort"

	"github.com/markis/bizcoach/internal/config"
)

// Scene is a role-play situation the user practises.
type Scene struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Phase     string `json:"phase,omitempty"`
	Context   string `json:"context"`
	Focus     string `json:"focus,omitempty"`
	Opening   string `json:"opening,omitempty"`
	OpeningJP string `json:"openingJp,omitempty"`
}

// builtinScenes is ordered as presented to users.
var builtinScenes = []Scene{
	{
		ID:      "job-interview",
		Label:   "Job Interview",
		Context: "Job Interview: The user is in a hiring interview. The partner is an interviewer. Tone: professional, concise, evidence-based.",
		Focus:   "Comment on both language and behavior: e.g. too vague, not enough concrete examples, or too humble.",
		Opening: "Thanks for coming in today. Could you start by telling me a little about yourself?",
	},
	{
		ID:      "first-team-intro",
		Label:   "First Team Intro",
		Context: "First Team Intro: The user is introducing themselves to the team. Tone: warm but professional, concise, approachable.",
		Focus:   "Note if they are too formal or too casual. Balance between memorable and professional.",
		Opening: "Everyone, please welcome our newest teammate. Would you like to say a few words?",
	},
	{
		ID:      "morning-sync",
		Label:   "Morning Sync",
		Context: "Morning Sync: A short daily standup. Tone: brief, clear, action-oriented.",
		Focus:   "Comment on clarity and brevity: e.g. too long, missing a clear ask.",
		Opening: "Morning! Quick round today. What are you working on?",
	},
	{
		ID:      "lunch-small-talk",
		Label:   "Lunch Small Talk",
		Context: "Lunch Small Talk: Casual conversation with a colleague. Tone: relaxed, friendly, work-appropriate.",
		Focus:   "Suggest slightly more relaxed vocabulary if appropriate. Note if too stiff or too informal.",
		Opening: "Mind if I join you? How's your week going so far?",
	},
	{
		ID:      "exec-report",
		Label:   "Exec Report",
		Context: "Exec Report: Progress update to executives. Tone: concise, outcome-focused, confident. No long preambles.",
		Focus:   "Comment on structure: e.g. preamble too long, need a clear bottom line first.",
		Opening: "We have five minutes. Where do things stand?",
	},
	{
		ID:      "signing-off",
		Label:   "Signing Off",
		Context: "Signing Off: End-of-day greetings. Tone: brief, polite, clear about handoffs if any.",
		Focus:   "Note if the sign-off is clear and professional without being cold.",
		Opening: "Heading out soon? Anything I should know before tomorrow?",
	},

	{
		ID: "coffee-break", Label: "The Coffee Break", Phase: "Day 1 - Week 1",
		Context:   "The Coffee Break: Chatting with a colleague in the pantry. Tone: friendly, light, curious.",
		Opening:   "Hey! You're the new hire, right? I'm Alex from Marketing. Getting used to the place?",
		OpeningJP: "やあ、新人さんだよね？マーケのアレックス。もう慣れてきた？",
	},
	{
		ID: "clarifying-instructions", Label: "Clarifying Instructions", Phase: "Day 1 - Week 1",
		Context:   "Clarifying Instructions: The user received a vague request and asks follow-up questions. Tone: polite, precise.",
		Opening:   "I need you to look into the Q3 numbers and get back to me when you can. Any questions?",
		OpeningJP: "Q3の数字を調べて、できるときに戻ってきて。質問ある？",
	},
	{
		ID: "tech-support-request", Label: "Tech Support Request", Phase: "Day 1 - Week 1",
		Context:   "Tech Support Request: The user asks IT to fix a setup problem over chat. Tone: clear, specific, courteous.",
		Opening:   "[Chat] Hi, this is IT Support. How can I help you today?",
		OpeningJP: "[チャット] こんにちは、ITサポートです。どのようなご用件でしょうか？",
	},
	{
		ID: "meeting-the-team", Label: "Meeting the Team", Phase: "Day 1 - Week 1",
		Context:   "Meeting the Team: Self-introduction on the first day. Tone: warm, concise, confident.",
		Opening:   "Hey everyone, this is our new teammate. Why don't you give us a quick intro—what you'll be doing and a bit about yourself?",
		OpeningJP: "みんな、新しいメンバーだよ。簡単に自己紹介して—何を担当するかと、自分について少し。",
	},
	{
		ID: "pushing-back", Label: "Pushing Back", Phase: "Month 1",
		Context:   "Pushing Back: Negotiating an unrealistic deadline with an alternative. Tone: constructive, firm, solution-oriented.",
		Opening:   "We need the full report by Friday. I know it's tight, but the client moved the deadline. Can you do it?",
		OpeningJP: "金曜までにレポート全部必要で。厳しいのは分かってるけど、クライアントが締め切り繰り上げたんだ。できる？",
	},
	{
		ID: "speaking-up", Label: "Speaking Up", Phase: "Month 1",
		Context:   "Speaking Up: Interjecting in a meeting to raise a point. Tone: assertive, respectful.",
		Opening:   "So we're going with Option A for the launch. Unless anyone has a strong objection, we'll lock it in.",
		OpeningJP: "じゃあローンチはオプションAで進めよう。強い反対がなければそこで確定。",
	},
	{
		ID: "reporting-bad-news", Label: "Reporting Bad News", Phase: "Month 1",
		Context:   "Reporting Bad News: Reporting a mistake or delay based on facts. Tone: honest, calm, accountable.",
		Opening:   "You wanted to talk? Close the door. What's going on?",
		OpeningJP: "話があるんだったな。ドア閉めて。どうした？",
	},
	{
		ID: "daily-standup", Label: "Daily Standup", Phase: "Month 1",
		Context:   "Daily Standup: Sharing progress in the morning meeting. Tone: brief, structured.",
		Opening:   "Good morning. Let's go around—what did you do yesterday, what's today, any blockers?",
		OpeningJP: "おはよう。順番に—昨日何した、今日何する、ブロッカーある？",
	},
	{
		ID: "asking-for-feedback", Label: "Asking for Feedback", Phase: "Month 3",
		Context:   "Asking for Feedback: A 1on1 about performance and areas to improve. Tone: open, proactive.",
		Opening:   "Good to see you. So, how do you think your first few months have gone? Anything you want to ask me?",
		OpeningJP: "会えてよかった。で、最初の数ヶ月どうだったと思う？何か聞きたいことある？",
	},
	{
		ID: "disagreeing-politely", Label: "Disagreeing Politely", Phase: "Month 3",
		Context:   "Disagreeing Politely: Raising concerns about a decision with reasons. Tone: diplomatic, logical.",
		Opening:   "The team has decided to prioritize the US market first. We'll revisit APAC in Q2. Any thoughts?",
		OpeningJP: "チームではまず米国市場を優先することを決めた。APACはQ2で見直す。意見ある？",
	},
	{
		ID: "goal-setting-talk", Label: "Goal Setting Talk", Phase: "Month 3",
		Context:   "Goal Setting Talk: Agreeing on next quarter's goals in a 1on1. Tone: ambitious, concrete.",
		Opening:   "Let's align on your goals for the next quarter. What do you want to focus on, and where do you need support?",
		OpeningJP: "次の四半期の目標を合わせよう。何に集中したい？どこでサポートが必要？",
	},
	{
		ID: "networking-lunch", Label: "Networking Lunch", Phase: "Month 3",
		Context:   "Networking Lunch: Building a relationship with a senior colleague over lunch. Tone: friendly, curious, respectful.",
		Opening:   "So glad you could join! I've been here five years—if you have any questions about how things work, just ask.",
		OpeningJP: "来てくれてありがとう！ここで5年なの。やり方で質問あったら何でも聞いてね。",
	},
}

// Catalogue holds the scenes known to a deployment.
type Catalogue struct {
	scenes map[string]Scene
	order  []string
}

// NewCatalogue returns the built-in scenes merged with overrides from the config.
// Override fields left empty keep the built-in value.
func NewCatalogue(overrides map[string]config.SceneConfig) *Catalogue {
	c := &Catalogue{scenes: make(map[string]Scene, len(builtinScenes)+len(overrides))}
	for _, s := range builtinScenes {
		c.scenes[s.ID] = s
		c.order = append(c.order, s.ID)
	}

	ids := make([]string, 0, len(overrides))
	for id := range overrides {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		o := overrides[id]
		s, ok := c.scenes[id]
		if !ok {
			s = Scene{ID: id, Label: id}
			c.order = append(c.order, id)
		}
		if o.Label != "" {
			s.Label = o.Label
		}
		if o.Context != "" {
			s.Context = o.Context
		}
		if o.Focus != "" {
			s.Focus = o.Focus
		}
		if o.Opening != "" {
			s.Opening = o.Opening
		}
		if o.OpeningJP != "" {
			s.OpeningJP = o.OpeningJP
		}
		c.scenes[id] = s
	}
	return c
}

// Lookup returns the scene with the given id.
func (c *Catalogue) Lookup(id string) (Scene, bool) {
	s, ok := c.scenes[id]
	return s, ok
}

// List returns every scene in presentation order.
func (c *Catalogue) List() []Scene {
	out := make([]Scene, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.scenes[id])
	}
	return out
}
