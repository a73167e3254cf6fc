// Profiling:
// go build ./profile/tick
// ./tick -strategy chunk-cached-index -mode cpu
// go tool pprof -http=":8000" -nodefraction=0.001 ./tick cpu.pprof

package main

import (
	"flag"

	"github.com/edwinsyarief/junban"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
)

func main() {
	strategy := flag.String("strategy", "modulus", "strategy name, key or number")
	mode := flag.String("mode", "cpu", "profile kind: cpu, mem or trace")
	entities := flag.Int("entities", 1_000_000, "number of entities")
	frequency := flag.Int("frequency", 10, "update frequency")
	ticks := flag.Int("ticks", 1000, "ticks to run")
	flag.Parse()

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	s, err := junban.ParseStrategy(*strategy)
	if err != nil {
		log.WithError(err).Fatal("bad strategy")
	}
	cfg := junban.DefaultConfig()
	cfg.Entities = *entities
	cfg.UpdateFrequency = *frequency
	cfg.Strategy = s
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("bad configuration")
	}

	var opt func(*profile.Profile)
	switch *mode {
	case "mem":
		opt = profile.MemProfileAllocs
	case "trace":
		opt = profile.TraceProfile
	default:
		opt = profile.CPUProfile
	}
	p := profile.Start(opt, profile.ProfilePath("."), profile.NoShutdownHook)
	run(cfg, *ticks, log)
	p.Stop()
}

func run(cfg junban.Config, ticks int, log *logrus.Logger) {
	w := junban.NewWorld(cfg.Entities, cfg.ChunkCapacity)
	junban.NewBuilder(w, cfg.UpdateFrequency).NewEntities(cfg.Entities, junban.Prototype{Speed: cfg.Speed})

	sched, err := junban.NewScheduler(w, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("scheduler setup failed")
	}
	defer sched.Close()
	for range ticks {
		sched.Tick(1.0 / 60)
	}
}
