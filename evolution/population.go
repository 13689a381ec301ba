package evolution

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/signalnine/dilemma/strategy"
)

// Individual is one population member and its fitness for the current
// generation.
type Individual struct {
	Strategy strategy.Strategy
	Fitness  float64
}

// Clone returns a copy of the individual with an independent strategy when the
// strategy supports cloning.
func (ind *Individual) Clone() *Individual {
	return &Individual{
		Strategy: strategy.Clone(ind.Strategy),
		Fitness:  ind.Fitness,
	}
}

// Member is the identity of an individual as recorded in a snapshot.
type Member struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Population represents a collection of individuals.
type Population struct {
	Individuals []*Individual
	Generation  int
}

// NewPopulation creates a population with one individual per strategy.
func NewPopulation(strategies []strategy.Strategy) *Population {
	individuals := make([]*Individual, len(strategies))
	for i, s := range strategies {
		individuals[i] = &Individual{Strategy: s}
	}
	return &Population{Individuals: individuals}
}

// Size returns the number of individuals in the population.
func (p *Population) Size() int {
	return len(p.Individuals)
}

// ResetFitness zeroes every individual's fitness.
func (p *Population) ResetFitness() {
	for _, ind := range p.Individuals {
		ind.Fitness = 0
	}
}

// SortByFitness orders the population by ascending fitness in place. Equal
// fitness keeps the current relative order.
func (p *Population) SortByFitness() {
	sort.SliceStable(p.Individuals, func(i, j int) bool {
		return p.Individuals[i].Fitness < p.Individuals[j].Fitness
	})
}

// Fitness returns the fitness values in population order.
func (p *Population) Fitness() []float64 {
	out := make([]float64, len(p.Individuals))
	for i, ind := range p.Individuals {
		out[i] = ind.Fitness
	}
	return out
}

// GetBestIndividual returns the individual with the highest fitness.
func (p *Population) GetBestIndividual() *Individual {
	if len(p.Individuals) == 0 {
		return nil
	}
	return p.Individuals[floats.MaxIdx(p.Fitness())]
}

// GetAverageFitness returns the mean fitness of the population.
func (p *Population) GetAverageFitness() float64 {
	if len(p.Individuals) == 0 {
		return 0.0
	}
	return floats.Sum(p.Fitness()) / float64(len(p.Individuals))
}

// Members returns the identities of the individuals in population order.
func (p *Population) Members() []Member {
	out := make([]Member, len(p.Individuals))
	for i, ind := range p.Individuals {
		out[i] = Member{ID: ind.Strategy.ID(), Name: ind.Strategy.Name()}
	}
	return out
}

// Counts returns how many individuals carry each strategy name.
func (p *Population) Counts() map[string]int {
	return countMembers(p.Members())
}

func countMembers(members []Member) map[string]int {
	counts := make(map[string]int)
	for _, m := range members {
		counts[m.Name]++
	}
	return counts
}
