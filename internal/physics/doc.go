// Package physics is the deterministic kernel of the billiards simulation.
//
// It has three parts, all pure functions over [body] values:
//
//   - force accumulation: [Settings.CalculateGravity], [Settings.CalculateFriction]
//   - collision prediction: [TimeToBallBallCollision], [TimeToWallCollision]
//   - collision response: [BallBallCollision], [BallWallCollision]
//
// Predicates report "no collision" as +Inf and forces report "no force" as
// the zero vector. Errors are reserved for inputs that break an invariant,
// such as a ball with zero mass or two coincident centres.
//
// # Example
//
//	s := physics.DefaultSettings()
//	t, err := physics.TimeToBallBallCollision(a, b)
//	if err == nil && t <= dt {
//	    a, b, err = physics.BallBallCollision(a, b, t)
//	}
//
// Nothing in this package holds state, so every function is safe to call
// from multiple goroutines.
package physics
