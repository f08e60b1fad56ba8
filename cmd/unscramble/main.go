// Unscramble is a small terminal word game. Players are shown a jumbled word
// and score points for guessing the original within two attempts.
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/fatih/color"
)

const (
	pointsPerCorrect = 10
	maxAttempts      = 2
	maxShuffleTries  = 10
)

// loadWordList reads one word per line, trimming whitespace and skipping
// blank lines.
func loadWordList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" {
			words = append(words, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	return words, nil
}

// jumble shuffles a word's letters until the order differs from the
// original, giving up after a bounded number of tries so short or repetitive
// words cannot loop forever.
func jumble(word string) string {
	if len(word) <= 1 {
		return word
	}
	original := []rune(word)
	shuffled := append([]rune(nil), original...)
	for try := 0; try < maxShuffleTries; try++ {
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		if string(shuffled) != word {
			return string(shuffled)
		}
	}
	return word
}

// gameState tracks score and which words have been played.
type gameState struct {
	score     int
	wordList  []string
	usedWords map[string]bool
}

func newGameState(words []string) *gameState {
	return &gameState{wordList: words, usedWords: make(map[string]bool)}
}

// pickNewWord selects a random unused word. Returns false when every word
// has been played.
func (g *gameState) pickNewWord() (string, bool) {
	var available []string
	for _, w := range g.wordList {
		if !g.usedWords[w] {
			available = append(available, w)
		}
	}
	if len(available) == 0 {
		return "", false
	}
	word := available[rand.Intn(len(available))]
	g.usedWords[word] = true
	return word, true
}

// playRound runs one word through the attempt loop. Returns false if the
// player asked to quit.
func (g *gameState) playRound(word string, in *bufio.Reader) bool {
	scrambled := jumble(word)
	fmt.Printf("\nUnscramble this word: %s\n", color.CyanString(scrambled))

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fmt.Printf("Attempt %d/%d: ", attempt, maxAttempts)
		line, err := in.ReadString('\n')
		if err != nil {
			return false
		}
		guess := strings.ToLower(strings.TrimSpace(line))
		if guess == "quit" || guess == "q" {
			return false
		}
		if guess == strings.ToLower(word) {
			g.score += pointsPerCorrect
			color.Green("Correct! +%d points (score: %d)", pointsPerCorrect, g.score)
			return true
		}
		color.Red("Not quite.")
	}
	fmt.Printf("The word was: %s\n", color.YellowString(word))
	return true
}

func main() {
	path := "words.txt"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	words, err := loadWordList(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(words) == 0 {
		fmt.Fprintln(os.Stderr, "Error: word list is empty")
		os.Exit(1)
	}

	fmt.Println("Welcome to Unscramble! Type 'quit' to stop.")
	state := newGameState(words)
	in := bufio.NewReader(os.Stdin)

	for {
		word, ok := state.pickNewWord()
		if !ok {
			fmt.Println("\nAll words played!")
			break
		}
		if !state.playRound(word, in) {
			break
		}
	}

	fmt.Printf("\nFinal score: %d\n", state.score)
}
