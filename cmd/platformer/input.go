package main

import "github.com/milk9111/charcontrol/ecs/system"

// courseStep holds an intent from its tick until the next step begins.
type courseStep struct {
	from   uint64
	intent system.Intent
}

// course runs right under the ghost ledge, hops onto it, drops back down and
// walks left toward the lift. It then loops.
var course = []courseStep{
	{from: 1, intent: system.Intent{}},
	{from: 60, intent: system.Intent{MoveX: 1}},
	{from: 150, intent: system.Intent{MoveX: 1, Jump: true}},
	{from: 155, intent: system.Intent{MoveX: 0.5}},
	{from: 260, intent: system.Intent{}},
	{from: 320, intent: system.Intent{MoveX: -1}},
	{from: 500, intent: system.Intent{MoveX: -1, Jump: true}},
	{from: 505, intent: system.Intent{MoveX: -1}},
	{from: 700, intent: system.Intent{}},
}

const courseLength = 760

func scriptedInput(tick uint64) system.Intent {
	t := (tick-1)%courseLength + 1
	intent := course[0].intent
	for _, step := range course {
		if t < step.from {
			break
		}
		intent = step.intent
	}
	return intent
}
