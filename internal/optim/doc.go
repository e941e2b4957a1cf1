// Package optim searches table settings. A grid search runs each
// combination of friction, restitution and gravity over a set of scenes and
// keeps the one that minimises a metric.
package optim
