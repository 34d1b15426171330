package release

import (
	"fmt"
	"strconv"
	"strings"
)

// Generation is a Java platform generation a release has to be compiled with.
// Larger values are newer generations.
type Generation int

const (
	Java8  Generation = 8
	Java9  Generation = 9
	Java10 Generation = 10
	Java11 Generation = 11
	Java12 Generation = 12
	Java13 Generation = 13
	Java14 Generation = 14
	Java15 Generation = 15
	Java16 Generation = 16
	Java17 Generation = 17
	Java18 Generation = 18
	Java19 Generation = 19
	Java20 Generation = 20
	Java21 Generation = 21
)

// OldestGeneration is used whenever a release does not state what it needs.
// Releases up to 1.11.2 do not list any class-file versions at all.
const OldestGeneration = Java8

type classIndex struct {
	index      int
	generation Generation
}

// classIndices maps class-file major versions to the generation that introduced them.
var classIndices = []classIndex{
	{52, Java8},
	{53, Java9},
	{54, Java10},
	{55, Java11},
	{56, Java12},
	{57, Java13},
	{58, Java14},
	{59, Java15},
	{60, Java16},
	{61, Java17},
	{62, Java18},
	{63, Java19},
	{64, Java20},
	{65, Java21},
}

// GenerationForIndex returns the generation for the class-file version index,
// or OldestGeneration when the index is unknown.
func GenerationForIndex(index int) Generation {
	for _, c := range classIndices {
		if c.index == index {
			return c.generation
		}
	}
	return OldestGeneration
}

// ClassIndex returns the class-file version index of g, or -1 for an unknown generation.
func (g Generation) ClassIndex() int {
	for _, c := range classIndices {
		if c.generation == g {
			return c.index
		}
	}
	return -1
}

// Known reports whether g is listed in the class-file index table.
func (g Generation) Known() bool {
	return g.ClassIndex() != -1
}

func (g Generation) String() string {
	return fmt.Sprintf("Java %d", int(g))
}

// ParseGeneration accepts "8", "java8", "Java 17", "jdk-16" and the like.
func ParseGeneration(s string) (Generation, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	for _, p := range []string{"java", "jdk", "-", "_", " "} {
		t = strings.TrimPrefix(strings.TrimSpace(t), p)
	}
	n, err := strconv.Atoi(strings.TrimSpace(t))
	if err != nil {
		return 0, fmt.Errorf("parse generation %q: %w", s, err)
	}
	g := Generation(n)
	if !g.Known() {
		return 0, fmt.Errorf("unsupported generation %q", s)
	}
	return g, nil
}
