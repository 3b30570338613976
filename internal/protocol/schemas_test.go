package protocol_test

import (
	"encoding/json"
	"testing"

	"undercroft.game/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	samples := map[string]string{
		protocol.TypeHello: `{
		  "type":"HELLO",
		  "protocol_version":"1.0",
		  "player_name":"sexton"
		}`,
		protocol.TypeWelcome: `{
		  "type":"WELCOME",
		  "protocol_version":"1.0",
		  "session_id":"7d444840-9dc0-11d1-b245-5ffdce74fad2",
		  "run_id":"run_1",
		  "level":{"name":"churchyard","width":24,"height":10},
		  "tick":0,
		  "catalogs":{
		    "terrain_palette":{"digest":"deadbeef","count":12},
		    "items_digest":"deadbeef",
		    "templates_digest":"deadbeef"
		  }
		}`,
		protocol.TypeAct: `{
		  "type":"ACT",
		  "protocol_version":"1.0",
		  "act_id":"A1",
		  "kind":"THROW",
		  "index":0,
		  "target":[4,2]
		}`,
		protocol.TypeActResult: `{
		  "type":"ACT_RESULT",
		  "protocol_version":"1.0",
		  "act_id":"A1",
		  "accepted":false,
		  "code":"E_DENIED",
		  "message":"The wall blocks your way.",
		  "start_tick":12,
		  "end_tick":12
		}`,
		protocol.TypeObs: `{
		  "type":"OBS",
		  "protocol_version":"1.0",
		  "tick":120,
		  "self":{"id":1,"pos":[2,2],"wounds":0,"inventory":["DIARY"],"wielded":[],"worn":null},
		  "tiles":[{"pos":[2,2],"terrain":3,"items":["SHOVEL"]}],
		  "actors":[{"id":2,"template":"zombie","name":"zombie","pos":[5,5],"wounds":1,"shocked":true}],
		  "events":[{"tick":119,"text":"You hit the zombie in the torso.","pos":[5,5],"category":"combat"}]
		}`,
		protocol.TypeJournalReq: `{
		  "type":"JOURNAL_REQ",
		  "protocol_version":"1.0",
		  "req_id":"R1",
		  "since_cursor":0,
		  "limit":50
		}`,
	}
	for typ, raw := range samples {
		if err := protocol.Validate(typ, []byte(raw)); err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
	}
}

func TestSchemas_RejectMalformedAct(t *testing.T) {
	bad := []string{
		// walk without a direction
		`{"type":"ACT","protocol_version":"1.0","act_id":"A1","kind":"WALK"}`,
		// unknown kind
		`{"type":"ACT","protocol_version":"1.0","act_id":"A1","kind":"FLY"}`,
		// three-component target
		`{"type":"ACT","protocol_version":"1.0","act_id":"A1","kind":"DIG","target":[1,2,3]}`,
		// negative index
		`{"type":"ACT","protocol_version":"1.0","act_id":"A1","kind":"DROP","index":-1}`,
		// unknown field
		`{"type":"ACT","protocol_version":"1.0","act_id":"A1","kind":"SKIP","tick":3}`,
	}
	for _, raw := range bad {
		if err := protocol.Validate(protocol.TypeAct, []byte(raw)); err == nil {
			t.Fatalf("expected rejection: %s", raw)
		}
	}
}

func TestSchemas_MarshalledMessagesValidate(t *testing.T) {
	idx := 1
	act := protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version, ActID: "A7", Kind: "WIELD", Index: &idx}
	raw, err := json.Marshal(act)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := protocol.Validate(protocol.TypeAct, raw); err != nil {
		t.Fatalf("act: %v", err)
	}

	obs := protocol.ObsMsg{Type: protocol.TypeObs, ProtocolVersion: protocol.Version, Self: protocol.SelfObs{ID: 1}}
	raw, err = json.Marshal(obs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := protocol.Validate(protocol.TypeObs, raw); err != nil {
		t.Fatalf("obs: %v", err)
	}
}

func TestSchema_UnknownType(t *testing.T) {
	if _, err := protocol.Schema("NOPE"); err == nil {
		t.Fatalf("expected error for unknown message type")
	}
}
