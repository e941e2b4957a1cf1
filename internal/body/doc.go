// Package body defines the value types a billiards scene is made of.
//
//   - [Ball]: circular body with position, velocity, radius and mass
//   - [Wall]: static segment or infinite line with a unit normal facing the table
//   - [BlackHole]: static point mass that attracts and swallows balls
//   - [Pocket]: capture zone that removes balls from play
//
// All types are plain values. Methods that change kinematics return a
// modified copy, so a Ball can be shared between goroutines for read-only
// queries without copying up front.
package body
