package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"undercroft.game/internal/protocol"
)

var dirs = []struct {
	name   string
	dx, dy int
}{
	{"N", 0, -1}, {"NE", 1, -1}, {"E", 1, 0}, {"SE", 1, 1},
	{"S", 0, 1}, {"SW", -1, 1}, {"W", -1, 0}, {"NW", -1, -1},
}

func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name  = flag.String("name", "bot", "player name")
		seed  = flag.Uint64("seed", 1, "bot decision seed")
		steps = flag.Int("steps", 200, "inputs to send before quitting")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	rng := rand.New(rand.NewPCG(*seed, 0))
	sent := 0
	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Printf("read: %v", err)
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s run=%s level=%s %dx%d", w.SessionID, w.RunID, w.Level.Name, w.Level.Width, w.Level.Height)

		case protocol.TypeActResult:
			var r protocol.ActResultMsg
			if err := json.Unmarshal(msg, &r); err != nil {
				continue
			}
			if r.Code != "" {
				logger.Printf("%s: %s %s", r.ActID, r.Code, r.Message)
			}

		case protocol.TypeObs:
			var obs protocol.ObsMsg
			if err := json.Unmarshal(msg, &obs); err != nil {
				continue
			}
			for _, ev := range obs.Events {
				logger.Printf("t=%d %s", ev.Tick, ev.Text)
			}
			if obs.GameOver {
				logger.Printf("game over at tick %d", obs.Tick)
				return
			}
			if sent >= *steps {
				return
			}
			act := choose(&obs, rng)
			sent++
			act.ActID = fmt.Sprintf("A%d", sent)
			if err := conn.WriteJSON(act); err != nil {
				logger.Printf("send ACT: %v", err)
				return
			}
		}
	}
}

// choose strikes an adjacent actor if there is one, walks toward the nearest
// visible actor otherwise, and wanders when alone.
func choose(obs *protocol.ObsMsg, rng *rand.Rand) protocol.ActMsg {
	act := protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version, Kind: "SKIP"}
	self := obs.Self.Pos

	var target *protocol.ActorObs
	best := 0
	for i := range obs.Actors {
		a := &obs.Actors[i]
		if a.ID == obs.Self.ID {
			continue
		}
		if d := chebyshev(self, a.Pos); target == nil || d < best {
			target, best = a, d
		}
	}
	switch {
	case target != nil && best == 1:
		pos := target.Pos
		act.Kind = "MELEE"
		act.Target = &pos
	case target != nil:
		act.Kind = "WALK"
		act.Dir = toward(self, target.Pos)
	default:
		if n := rng.IntN(len(dirs) + 1); n < len(dirs) {
			act.Kind = "WALK"
			act.Dir = dirs[n].name
		}
	}
	return act
}

func toward(from, to [2]int) string {
	dx, dy := sign(to[0]-from[0]), sign(to[1]-from[1])
	for _, d := range dirs {
		if d.dx == dx && d.dy == dy {
			return d.name
		}
	}
	return "N"
}

func chebyshev(a, b [2]int) int {
	return max(abs(a[0]-b[0]), abs(a[1]-b[1]))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
