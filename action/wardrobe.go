package action

import (
	"fmt"
	"io"
	"time"

	"github.com/penguins-eggs/eggs/phase"
	"github.com/penguins-eggs/eggs/pkg/wardrobe"
)

// WardrobeList prints the costumes and accessories of the wardrobe
type WardrobeList struct {
	Wardrobe *wardrobe.Wardrobe
	Writer   io.Writer
}

func (w WardrobeList) Run() error {
	items, err := w.Wardrobe.List()
	if err != nil {
		return err
	}
	for _, it := range items {
		fmt.Fprintf(w.Writer, "%-32s %s\n", it.Name, it.Description)
	}
	return nil
}

// WardrobeShow prints the index of a costume
type WardrobeShow struct {
	Wardrobe *wardrobe.Wardrobe
	Costume  string
	JSON     bool
	Writer   io.Writer
}

func (w WardrobeShow) Run() error {
	out, err := w.Wardrobe.Show(w.Costume, w.JSON)
	if err != nil {
		return err
	}
	fmt.Fprintln(w.Writer, out)
	return nil
}

// WardrobeGet clones the wardrobe repository
type WardrobeGet struct {
	Manager  *phase.Manager
	Wardrobe *wardrobe.Wardrobe
	Repo     string
}

func (w WardrobeGet) Run() error {
	w.Manager.AddPhase(&phase.Connect{})
	if err := w.Manager.Run(); err != nil {
		return err
	}
	if c, ok := w.Manager.Connection(); ok {
		defer c.Disconnect()
	}
	return w.Wardrobe.Get(w.Manager.Host, w.Repo)
}

// WardrobeWear dresses the running system with a costume
type WardrobeWear struct {
	// Manager is the phase manager
	Manager       *phase.Manager
	Wardrobe      *wardrobe.Wardrobe
	Costume       string
	NoAccessories bool
	NoFirmwares   bool
	Stdout        io.Writer
	Unattended    bool
}

func (w WardrobeWear) Run() error {
	name := wardrobe.Name(w.Costume)
	if err := confirm(w.Stdout, w.Unattended, fmt.Sprintf("Going to wear %s, continue?", name)); err != nil {
		return err
	}

	start := time.Now()

	lock := &phase.Lock{}
	w.Manager.AddPhase(
		lock,
		&phase.Connect{},
		&phase.DetectOS{},
		&phase.Wear{
			Wardrobe:      w.Wardrobe,
			Costume:       w.Costume,
			NoAccessories: w.NoAccessories,
			NoFirmwares:   w.NoFirmwares,
		},
	)
	w.Manager.AddCleanup(lock.UnlockPhase(), &phase.Disconnect{})

	if err := w.Manager.Run(); err != nil {
		return err
	}

	finished(start)

	return nil
}
