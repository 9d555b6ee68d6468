// pid.go - Proportional-integral-derivative step controller
package peekpoke

// PIDController drives a value toward a setpoint. Call Step with the
// current measurement and the elapsed time; the returned control output
// is clamped to [Min, Max] when Max is above Min.
type PIDController struct {
	Kp, Ki, Kd float64
	Min, Max   float64

	setpoint  float64
	integral  float64
	lastError float64
	primed    bool
}

// NewPIDController creates a controller with the given gains and no
// output clamping
func NewPIDController(kp, ki, kd float64) *PIDController {
	return &PIDController{Kp: kp, Ki: ki, Kd: kd}
}

// SetTarget sets the setpoint the controller steers toward
func (c *PIDController) SetTarget(setpoint float64) {
	c.setpoint = setpoint
}

// Target returns the current setpoint
func (c *PIDController) Target() float64 {
	return c.setpoint
}

// Step advances the controller by dt seconds given the current
// measurement and returns the control output
func (c *PIDController) Step(measurement, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	err := c.setpoint - measurement
	c.integral += err * dt
	derivative := 0.0
	if c.primed {
		derivative = (err - c.lastError) / dt
	}
	c.lastError = err
	c.primed = true

	out := c.Kp*err + c.Ki*c.integral + c.Kd*derivative
	if c.Max > c.Min {
		if out > c.Max {
			out = c.Max
		} else if out < c.Min {
			out = c.Min
		}
	}
	return out
}

// Reset clears the accumulated state but keeps gains and setpoint
func (c *PIDController) Reset() {
	c.integral = 0
	c.lastError = 0
	c.primed = false
}
