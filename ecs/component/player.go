package component

// Controller turns Input and sensor readings into motor commands for a
// floating character body.
type Controller struct {
	FloatHeight     float64
	SpringStrength  float64
	SpringDampening float64
	WalkSpeed       float64
	Acceleration    float64
	JumpSpeed       float64
	CoyoteFrames    int

	Grounded   bool
	CoyoteLeft int
	// Jumping is set from takeoff until the body starts descending.
	Jumping bool
}

var ControllerComponent = NewComponent[Controller]()
