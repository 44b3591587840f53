package pvpttt

// FrameKind selects the caption and decoration of one rendered board.
type FrameKind uint8

const (
	// FrameYourTurn goes to the player to move, with the cursor outlined.
	FrameYourTurn FrameKind = iota + 1
	// FrameWaiting goes to the other player in split mode.
	FrameWaiting
	// FrameShared is the single combined frame when both share one room.
	FrameShared
	// FrameFinished is sent once per surface after the session ends.
	FrameFinished
)

func (k FrameKind) String() string {
	switch k {
	case FrameYourTurn:
		return "your_turn"
	case FrameWaiting:
		return "waiting"
	case FrameShared:
		return "shared"
	case FrameFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Frame is one board image bound for one surface. Highlight is a cell index
// or -1.
type Frame struct {
	Kind      FrameKind
	Surface   SurfaceRef
	Viewer    Player
	Highlight int
}

// RenderPlan is everything a Notifier needs to bring surfaces up to Snapshot.
type RenderPlan struct {
	Snapshot Snapshot
	Frames   []Frame
}

// Surfaces lists the distinct surfaces of the plan in frame order.
func (p RenderPlan) Surfaces() []SurfaceRef {
	seen := make(map[string]struct{}, len(p.Frames))
	var out []SurfaceRef
	for _, f := range p.Frames {
		if _, ok := seen[f.Surface.Room]; ok {
			continue
		}
		seen[f.Surface.Room] = struct{}{}
		out = append(out, f.Surface)
	}
	return out
}

// PlanFor decides which frames a snapshot produces.
func PlanFor(s Snapshot) RenderPlan {
	plan := RenderPlan{Snapshot: s}
	if s.Terminal() {
		plan.Frames = append(plan.Frames, Frame{Kind: FrameFinished, Surface: s.First.Surface, Viewer: s.First, Highlight: -1})
		if s.Mode != SurfaceShared {
			plan.Frames = append(plan.Frames, Frame{Kind: FrameFinished, Surface: s.Second.Surface, Viewer: s.Second, Highlight: -1})
		}
		return plan
	}
	active, waiting := s.Active(), s.Waiting()
	if s.Mode == SurfaceShared {
		plan.Frames = []Frame{{Kind: FrameShared, Surface: active.Surface, Viewer: active, Highlight: s.Cursor}}
		return plan
	}
	plan.Frames = []Frame{
		{Kind: FrameYourTurn, Surface: active.Surface, Viewer: active, Highlight: s.Cursor},
		{Kind: FrameWaiting, Surface: waiting.Surface, Viewer: waiting, Highlight: -1},
	}
	return plan
}
