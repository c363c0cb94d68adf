package main

import (
	"context"
	"io"
	"os"
	"time"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, the process environment and a base context.
type Environment struct {
	Now     func() time.Time
	Stdout  io.Writer
	Stderr  io.Writer
	Environ func() []string
	Context context.Context // nil = context.Background()
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:     time.Now,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Environ: os.Environ,
	}
}

func (e *Environment) context() context.Context {
	if e.Context != nil {
		return e.Context
	}
	return context.Background()
}

func (e *Environment) environ() []string {
	if e.Environ == nil {
		return nil
	}
	return e.Environ()
}
