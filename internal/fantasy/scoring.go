package fantasy

// StatLine holds counting stats for one game or a sum of games.
type StatLine struct {
	Goals      int `json:"goals"`
	Assists    int `json:"assists"`
	Ds         int `json:"ds"`
	Drops      int `json:"drops"`
	Throwaways int `json:"throwaways"`
}

// Turnovers is drops plus throwaways.
func (s StatLine) Turnovers() int {
	return s.Drops + s.Throwaways
}

// Add returns the field-wise sum of s and o.
func (s StatLine) Add(o StatLine) StatLine {
	return StatLine{
		Goals:      s.Goals + o.Goals,
		Assists:    s.Assists + o.Assists,
		Ds:         s.Ds + o.Ds,
		Drops:      s.Drops + o.Drops,
		Throwaways: s.Throwaways + o.Throwaways,
	}
}

// CaptainScore is the headline fantasy formula: 3a + 3g + 9d - 3to.
func CaptainScore(goals, assists, ds, drops, throwaways float64) float64 {
	return 3*assists + 3*goals + 9*ds - 3*(drops+throwaways)
}

// HandlerScore weights assists and ds: 3a + 1g + 3d - 1to.
func HandlerScore(goals, assists, ds, drops, throwaways float64) float64 {
	return 3*assists + goals + 3*ds - (drops + throwaways)
}

// CutterScore weights goals and ds: 1a + 3g + 3d - 1to.
func CutterScore(goals, assists, ds, drops, throwaways float64) float64 {
	return assists + 3*goals + 3*ds - (drops + throwaways)
}

// DefenderScore weights ds heavily: 1a + 1g + 9d - 1to.
func DefenderScore(goals, assists, ds, drops, throwaways float64) float64 {
	return assists + goals + 9*ds - (drops + throwaways)
}

type scoreFunc func(goals, assists, ds, drops, throwaways float64) float64

var positionFormulas = map[Position]scoreFunc{
	PositionCaptain:  CaptainScore,
	PositionHandler:  HandlerScore,
	PositionCutter:   CutterScore,
	PositionDefender: DefenderScore,
}

func (s StatLine) score(fn scoreFunc) float64 {
	return fn(
		float64(s.Goals),
		float64(s.Assists),
		float64(s.Ds),
		float64(s.Drops),
		float64(s.Throwaways),
	)
}

// ScoreFor applies the formula of position p to s. Unknown positions score 0.
func ScoreFor(p Position, s StatLine) float64 {
	fn, ok := positionFormulas[p]
	if !ok {
		return 0
	}
	return s.score(fn)
}

// RoleScores carries the result of every formula for one stat line.
type RoleScores struct {
	Captain  float64 `json:"captain"`
	Handler  float64 `json:"handler"`
	Cutter   float64 `json:"cutter"`
	Defender float64 `json:"defender"`
}

// ScoreAll evaluates all four formulas over s.
func ScoreAll(s StatLine) RoleScores {
	return RoleScores{
		Captain:  s.score(CaptainScore),
		Handler:  s.score(HandlerScore),
		Cutter:   s.score(CutterScore),
		Defender: s.score(DefenderScore),
	}
}
