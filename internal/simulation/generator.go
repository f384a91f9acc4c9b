// Package simulation produz leituras sintéticas para demonstração quando
// nenhum backend de detecção está configurado.
package simulation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"shield_go/internal/models"
)

// Scenario é uma das quatro faixas categóricas do sorteio
type Scenario struct {
	Name      string
	Weapon    int
	Audio     int
	Pose      int
	Proximity int
}

// Faixas cumulativas, avaliadas nesta ordem (a primeira que casar vence)
var (
	ScenarioWeaponAudio = Scenario{Name: "weapon_audio", Weapon: 45, Audio: 35}
	ScenarioProximity   = Scenario{Name: "proximity", Proximity: 15}
	ScenarioMedical     = Scenario{Name: "medical", Audio: 35, Pose: 20}
	ScenarioAllClear    = Scenario{Name: "all_clear"}
)

// ScenarioFor seleciona o cenário para um valor uniforme em [0,1)
func ScenarioFor(r float64) Scenario {
	switch {
	case r >= 0.9:
		return ScenarioWeaponAudio
	case r >= 0.8:
		return ScenarioProximity
	case r >= 0.7:
		return ScenarioMedical
	default:
		return ScenarioAllClear
	}
}

// Readings converte o cenário em um ReadingSet
func (s Scenario) Readings(ts time.Time) models.ReadingSet {
	return models.NewReadingSet(s.Weapon, s.Audio, s.Pose, s.Proximity, ts)
}

// Generator sorteia um cenário por tick a partir de uma fonte aleatória própria
type Generator struct {
	rng   *rand.Rand
	mutex sync.Mutex
	now   func() time.Time
}

// NewGenerator cria um gerador; seed 0 usa o relógio como semente
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewGeneratorWithRand(rand.New(rand.NewSource(seed)))
}

// NewGeneratorWithRand cria um gerador com uma fonte aleatória injetada
func NewGeneratorWithRand(rng *rand.Rand) *Generator {
	return &Generator{rng: rng, now: time.Now}
}

// Name implementa acquisition.Source
func (g *Generator) Name() string {
	return "simulation"
}

// Next sorteia um único valor e devolve o ReadingSet do cenário correspondente.
// Não falha; o total/status são calculados pelo controlador.
func (g *Generator) Next(ctx context.Context) (models.Acquisition, error) {
	g.mutex.Lock()
	r := g.rng.Float64()
	g.mutex.Unlock()

	return models.Acquisition{Readings: ScenarioFor(r).Readings(g.now())}, nil
}
