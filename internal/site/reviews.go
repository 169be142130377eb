package site

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Review is one customer testimonial shown on the reviews page.
type Review struct {
	Author   string `yaml:"author"`
	Location string `yaml:"location"`
	Rating   int    `yaml:"rating"`
	Text     string `yaml:"text"`
	Date     string `yaml:"date"`
}

// LoadReviews reads the testimonials file. A missing file is an empty
// reviews page, not an error.
func LoadReviews(path string) ([]Review, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reviews file: %w", err)
	}
	var reviews []Review
	if err := yaml.Unmarshal(raw, &reviews); err != nil {
		return nil, fmt.Errorf("parse reviews file: %w", err)
	}
	return reviews, nil
}
