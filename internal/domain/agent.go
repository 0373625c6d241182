package domain

type Agent string

const (
	AgentGeneration Agent = "generation"
	AgentReflection Agent = "reflection"
	AgentRanking    Agent = "ranking"
)

func ValidAgent(a string) bool {
	switch Agent(a) {
	case AgentGeneration, AgentReflection, AgentRanking:
		return true
	}
	return false
}

func AllAgents() []Agent {
	return []Agent{AgentGeneration, AgentReflection, AgentRanking}
}

type AgentStatus string

const (
	AgentPending   AgentStatus = "pending"
	AgentRunning   AgentStatus = "running"
	AgentCompleted AgentStatus = "completed"
	AgentError     AgentStatus = "error"
)

func ValidAgentStatus(s string) bool {
	switch AgentStatus(s) {
	case AgentPending, AgentRunning, AgentCompleted, AgentError:
		return true
	}
	return false
}

// AgentProgress maps each of the three pipeline stages to its status.
// It is always fully populated; Set ignores unknown agents so the three
// fixed keys can never gain siblings or go missing.
type AgentProgress map[Agent]AgentStatus

func NewAgentProgress() AgentProgress {
	p := make(AgentProgress, 3)
	for _, a := range AllAgents() {
		p[a] = AgentPending
	}
	return p
}

func (p AgentProgress) Set(agent Agent, status AgentStatus) {
	if _, ok := p[agent]; ok {
		p[agent] = status
	}
}

// Reset returns every stage to pending, as at the start of an iteration.
func (p AgentProgress) Reset() {
	for _, a := range AllAgents() {
		p[a] = AgentPending
	}
}

// ForceCompleted marks every stage completed, as on research_completed.
func (p AgentProgress) ForceCompleted() {
	for _, a := range AllAgents() {
		p[a] = AgentCompleted
	}
}

func (p AgentProgress) Clone() AgentProgress {
	c := make(AgentProgress, len(p))
	for a, s := range p {
		c[a] = s
	}
	return c
}
