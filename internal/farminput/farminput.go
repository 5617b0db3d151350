// Package farminput collects a farm location and date range from a terminal.
package farminput

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/farm-weather/internal/common"
	"github.com/i474232898/farm-weather/internal/weather"
)

// ErrAborted is returned when input ends before every field was collected.
var ErrAborted = errors.New("input aborted")

const invalidDateMsg = "Invalid date format. Please use YYYY-MM-DD."

// FarmInput is the validated result of Collect.
type FarmInput struct {
	Location weather.Location
	Start    time.Time
	End      time.Time
}

// Options tune Collect.
type Options struct {
	// Location skips the coordinate prompts when set, e.g. after IP geolocation.
	Location *weather.Location
}

var validate = validator.New()

// Collect prompts on out and reads answers from in, one line each, until every
// field is valid. Invalid answers are reported and the same prompt is repeated.
func Collect(in io.Reader, out io.Writer, opts Options) (FarmInput, error) {
	sc := bufio.NewScanner(in)
	ask := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", fmt.Errorf("%w: %v", ErrAborted, err)
			}
			return "", ErrAborted
		}
		return strings.TrimSpace(sc.Text()), nil
	}

	var res FarmInput
	if opts.Location != nil {
		res.Location = *opts.Location
	} else {
		lat, err := askCoordinate(ask, out, "Enter latitude (between -90 and 90): ", "Latitude", "gte=-90,lte=90", "must be between -90 and 90")
		if err != nil {
			return FarmInput{}, err
		}
		lon, err := askCoordinate(ask, out, "Enter longitude (between -180 and 180): ", "Longitude", "gte=-180,lte=180", "must be between -180 and 180")
		if err != nil {
			return FarmInput{}, err
		}
		res.Location = weather.Location{Latitude: lat, Longitude: lon}
	}

	for {
		line, err := ask("Enter start date (YYYY-MM-DD): ")
		if err != nil {
			return FarmInput{}, err
		}
		d, err := common.ParseDate(line)
		if err != nil {
			fmt.Fprintln(out, invalidDateMsg)
			continue
		}
		res.Start = d
		break
	}

	for {
		line, err := ask("Enter end date (YYYY-MM-DD): ")
		if err != nil {
			return FarmInput{}, err
		}
		d, err := common.ParseDate(line)
		if err != nil {
			fmt.Fprintln(out, invalidDateMsg)
			continue
		}
		if d.Before(res.Start) {
			fmt.Fprintf(out, "Invalid input: End date must not be earlier than start date.\n")
			continue
		}
		res.End = d
		break
	}

	return res, nil
}

func askCoordinate(ask func(string) (string, error), out io.Writer, prompt, field, rule, reason string) (float64, error) {
	for {
		line, err := ask(prompt)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			fmt.Fprintf(out, "Invalid input: %s must be a number.\n", field)
			continue
		}
		if err := validate.Var(v, rule); err != nil {
			fmt.Fprintf(out, "Invalid input: %s %s.\n", field, reason)
			continue
		}
		return v, nil
	}
}
