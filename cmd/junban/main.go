package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/edwinsyarief/junban"
	"github.com/edwinsyarief/junban/stats"
	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"
)

const frameMs = 16

func main() {
	configPath := flag.String("config", "", "JSON config file")
	envFile := flag.String("env", "", "comma separated env files (default .env)")
	headless := flag.Bool("headless", false, "run without a terminal UI")
	ticks := flag.Int("ticks", 600, "ticks per strategy in headless mode")
	all := flag.Bool("all", false, "cycle through every strategy in headless mode")
	flag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = strings.Split(*envFile, ",")
	}
	cfg, err := junban.LoadConfig(*configPath, envFiles...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := junban.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	sim, err := newSimulation(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("setup failed")
	}
	defer sim.close()

	if *headless {
		sim.headless(*ticks, *all)
		return
	}
	// the terminal belongs to tcell from here on
	logger.SetOutput(io.Discard)
	if err := sim.interactive(); err != nil {
		logger.SetOutput(os.Stderr)
		logger.WithError(err).Fatal("terminal failed")
	}
}

type simulation struct {
	cfg      junban.Config
	log      *logrus.Logger
	world    *junban.World
	sched    *junban.Scheduler
	store    *stats.Store
	builder  *junban.Builder
	ents     []junban.Entity
	last     junban.TickStats
	avg      time.Duration
	message  string
	moved    int
	lastTick time.Time
}

func newSimulation(cfg junban.Config, log *logrus.Logger) (*simulation, error) {
	start := time.Now()
	w := junban.NewWorld(cfg.Entities, cfg.ChunkCapacity)
	builder := junban.NewBuilder(w, cfg.UpdateFrequency)
	ents := builder.NewEntitiesFunc(cfg.Entities, func(i int) junban.Prototype {
		return junban.Prototype{
			Position: junban.Vec3{X: float32(i % 1000), Z: float32(i / 1000)},
			Speed:    cfg.Speed,
		}
	})
	log.WithFields(logrus.Fields{
		"entities":  cfg.Entities,
		"frequency": cfg.UpdateFrequency,
		"chunks":    len(w.Chunks()),
		"elapsed":   time.Since(start),
	}).Info("population spawned")

	sched, err := junban.NewScheduler(w, cfg, log)
	if err != nil {
		return nil, err
	}
	s := &simulation{cfg: cfg, log: log, world: w, sched: sched, builder: builder, ents: ents}
	if cfg.StatsPath != "" {
		s.store, err = stats.Open(cfg.StatsPath, cfg.Entities, cfg.UpdateFrequency, log)
		if err != nil {
			return nil, err
		}
		s.store.Attach(sched.Bus())
	}
	junban.Subscribe(sched.Bus(), func(e junban.StrategySelected) {
		s.message = e.Description
	})
	junban.Subscribe(sched.Bus(), func(e junban.IndexRebuilt) {
		s.message = fmt.Sprintf("index rebuilt: %d groups, %d entities", e.Groups, e.Entities)
	})
	s.message = cfg.Strategy.Description()
	return s, nil
}

func (s *simulation) tick() {
	dt := s.cfg.DeltaTime
	now := time.Now()
	if dt == 0 {
		if s.lastTick.IsZero() {
			dt = 1.0 / 60
		} else {
			dt = float32(now.Sub(s.lastTick).Seconds())
		}
	}
	s.lastTick = now
	s.last = s.sched.Tick(dt)
	if s.avg == 0 {
		s.avg = s.last.Elapsed
	} else {
		s.avg = (s.avg*15 + s.last.Elapsed) / 16
	}
}

// mutateGroups moves every hundredth entity to the next group.
func (s *simulation) mutateGroups() {
	f := s.cfg.UpdateFrequency
	n := 0
	for i := 0; i < len(s.ents); i += 100 {
		g, ok := s.world.Group(s.ents[i])
		if !ok {
			continue
		}
		if s.world.SetGroup(s.ents[i], junban.Group((int(g)+1)%f)) {
			n++
		}
	}
	s.moved += n
	s.message = fmt.Sprintf("moved %d entities to the next group", n)
}

// churn removes every fiftieth entity and spawns as many replacements.
func (s *simulation) churn() {
	var dead []junban.Entity
	for i := 0; i < len(s.ents); i += 50 {
		dead = append(dead, s.ents[i])
	}
	s.world.RemoveEntities(dead)
	fresh := s.builder.NewEntities(len(dead), junban.Prototype{Speed: s.cfg.Speed})
	for i, j := 0, 0; j < len(fresh); i, j = i+50, j+1 {
		s.ents[i] = fresh[j]
	}
	s.message = fmt.Sprintf("respawned %d entities", len(fresh))
}

func (s *simulation) headless(ticks int, all bool) {
	list := []junban.Strategy{s.cfg.Strategy}
	if all {
		list = junban.Strategies()
	}
	for _, id := range list {
		if err := s.sched.SelectStrategy(id); err != nil {
			s.log.WithError(err).Error("select strategy")
			return
		}
		s.avg = 0
		for range ticks {
			s.tick()
		}
		s.log.WithFields(logrus.Fields{
			"strategy": id.String(),
			"ticks":    ticks,
			"mean":     s.avg,
		}).Info("strategy finished")
	}
	if s.store != nil {
		if err := s.store.ExportJSON(os.Stdout); err != nil {
			s.log.WithError(err).Error("export stats")
		}
		fmt.Fprintln(os.Stdout)
	}
}

func (s *simulation) interactive() error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	ticker := time.NewTicker(frameMs * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case ev := <-eventChan:
			if quit := s.handleEvent(screen, ev); quit {
				return nil
			}
		case <-ticker.C:
			s.tick()
			s.draw(screen)
		}
	}
}

func (s *simulation) handleEvent(screen tcell.Screen, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return true
		}
		if ev.Key() != tcell.KeyRune {
			return false
		}
		switch r := ev.Rune(); r {
		case 'q':
			return true
		case 'r':
			s.sched.RebuildIndex()
		case 'g':
			s.mutateGroups()
		case 'x':
			s.churn()
		default:
			if id, ok := junban.StrategyForKey(r); ok {
				if err := s.sched.SelectStrategy(id); err != nil {
					s.message = err.Error()
				}
				s.avg = 0
			}
		}
	case *tcell.EventResize:
		screen.Sync()
	}
	return false
}

func (s *simulation) draw(screen tcell.Screen) {
	screen.Clear()
	title := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	plain := tcell.StyleDefault
	dim := tcell.StyleDefault.Foreground(tcell.ColorGray)

	y := 0
	line := func(style tcell.Style, format string, args ...any) {
		drawText(screen, 0, y, style, fmt.Sprintf(format, args...))
		y++
	}
	line(title, "junban  %d entities, update frequency %d", s.world.EntityCount(), s.sched.Frequency())
	y++
	cur := s.sched.Strategy()
	for _, id := range junban.Strategies() {
		style := dim
		marker := " "
		if id == cur {
			style = plain.Bold(true)
			marker = ">"
		}
		line(style, "%s [%c] S%d %s", marker, id.Key(), int(id), id)
	}
	y++
	line(plain, "tick %d  cursor %d  %s domain %d  updated %d  tasks %d",
		s.last.Tick, s.last.Cursor, s.last.Kind, s.last.Domain, s.last.Updated, s.last.Tasks)
	line(plain, "tick time %.3f ms  (avg %.3f ms)",
		float64(s.last.Elapsed.Microseconds())/1000, float64(s.avg.Microseconds())/1000)
	if idx := s.sched.Index(); idx != nil {
		state := "fresh"
		if idx.Stale(s.world) {
			state = "stale, press r"
		}
		line(plain, "group index: %d groups, %d rebuilds, %s", idx.Groups(), idx.Rebuilds(), state)
	}
	if s.moved > 0 {
		line(dim, "entities moved so far: %d", s.moved)
	}
	if s.store != nil {
		line(dim, "recording run %s", s.store.Run())
	}
	y++
	line(plain, "%s", s.message)
	y++
	line(dim, "a-f strategy  r rebuild index  g move groups  x respawn  q quit")
	screen.Show()
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func (s *simulation) close() {
	s.sched.Close()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.WithError(err).Warn("close stats store")
		}
	}
}
