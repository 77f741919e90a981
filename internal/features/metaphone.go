package features

import "strings"

// DoubleMetaphone computes the primary and (possibly empty) alternate
// Double Metaphone phonetic keys for word, following the rule structure
// of Lawrence Philips' algorithm. The algorithm's Slavic/Germanic origin
// test is approximated from consonant clusters in the word (see
// isGermanicOrSlavic), so keys can differ from other Double Metaphone
// implementations for some words.
func DoubleMetaphone(word string) (primary, alternate string) {
	w := strings.ToUpper(strings.TrimSpace(word))
	if w == "" {
		return "", ""
	}
	r := []rune(w)
	d := &dmState{r: r, n: len(r)}
	d.run()
	return d.primary.String(), d.alternate.String()
}

type dmState struct {
	r             []rune
	n             int
	pos           int
	primary       strings.Builder
	alternate     strings.Builder
	primarySame   bool // whether primary == alternate so far
	maxLen        int
}

const dmMaxLength = 8

func (d *dmState) at(i int) rune {
	if i < 0 || i >= d.n {
		return 0
	}
	return d.r[i]
}

func (d *dmState) stringAt(start, length int, candidates ...string) bool {
	if start < 0 || start >= d.n {
		return false
	}
	end := start + length
	if end > d.n {
		return false
	}
	sub := string(d.r[start:end])
	for _, c := range candidates {
		if sub == c {
			return true
		}
	}
	return false
}

func isVowel(r rune) bool {
	switch r {
	case 'A', 'E', 'I', 'O', 'U', 'Y':
		return true
	}
	return false
}

func (d *dmState) add(main, alt string) {
	if main != "" {
		d.primary.WriteString(main)
	}
	if alt != "" {
		d.alternate.WriteString(alt)
	} else if main != "" {
		d.alternate.WriteString(main)
	}
}

func (d *dmState) addBoth(s string) {
	d.primary.WriteString(s)
	d.alternate.WriteString(s)
}

// run implements the main dispatch loop of the algorithm.
func (d *dmState) run() {
	first := d.skipInitialSilentLetters()
	d.pos = first

	for d.primary.Len() < dmMaxLength || d.alternate.Len() < dmMaxLength {
		if d.pos >= d.n {
			break
		}
		c := d.at(d.pos)

		if isVowel(c) {
			if d.pos == 0 {
				// All initial vowels map to 'A'.
				d.addBoth("A")
			}
			d.pos++
			continue
		}

		switch c {
		case 'B':
			d.addBoth("P")
			if d.at(d.pos+1) == 'B' {
				d.pos += 2
			} else {
				d.pos++
			}
		case 'Ç':
			d.addBoth("S")
			d.pos++
		case 'C':
			d.pos = d.handleC()
		case 'D':
			d.pos = d.handleD()
		case 'F':
			d.addBoth("F")
			if d.at(d.pos+1) == 'F' {
				d.pos += 2
			} else {
				d.pos++
			}
		case 'G':
			d.pos = d.handleG()
		case 'H':
			d.pos = d.handleH()
		case 'J':
			d.pos = d.handleJ()
		case 'K':
			d.addBoth("K")
			if d.at(d.pos+1) == 'K' {
				d.pos += 2
			} else {
				d.pos++
			}
		case 'L':
			d.pos = d.handleL()
		case 'M':
			d.addBoth("M")
			if d.conditionM0() {
				d.pos += 2
			} else {
				d.pos++
			}
		case 'N':
			d.addBoth("N")
			if d.at(d.pos+1) == 'N' {
				d.pos += 2
			} else {
				d.pos++
			}
		case 'Ñ':
			d.addBoth("N")
			d.pos++
		case 'P':
			d.pos = d.handleP()
		case 'Q':
			d.addBoth("K")
			if d.at(d.pos+1) == 'Q' {
				d.pos += 2
			} else {
				d.pos++
			}
		case 'R':
			d.pos = d.handleR()
		case 'S':
			d.pos = d.handleS()
		case 'T':
			d.pos = d.handleT()
		case 'V':
			d.addBoth("F")
			if d.at(d.pos+1) == 'V' {
				d.pos += 2
			} else {
				d.pos++
			}
		case 'W':
			d.pos = d.handleW()
		case 'X':
			d.pos = d.handleX()
		case 'Z':
			d.pos = d.handleZ()
		default:
			d.pos++
		}
	}

	d.truncate()
}

func (d *dmState) truncate() {
	if p := d.primary.String(); len(p) > dmMaxLength {
		d.primary.Reset()
		d.primary.WriteString(p[:dmMaxLength])
	}
	if a := d.alternate.String(); len(a) > dmMaxLength {
		d.alternate.Reset()
		d.alternate.WriteString(a[:dmMaxLength])
	}
}

func (d *dmState) skipInitialSilentLetters() int {
	if d.n >= 2 {
		prefix2 := string(d.r[:2])
		switch prefix2 {
		case "GN", "KN", "PN", "WR", "PS":
			return 1
		}
	}
	if d.n >= 1 && d.at(0) == 'X' {
		// Initial X is pronounced like S ("Xavier").
		d.addBoth("S")
		return 1
	}
	if d.n >= 2 && string(d.r[:2]) == "WH" {
		d.addBoth("A")
		return 2
	}
	return 0
}

func (d *dmState) conditionM0() bool {
	if d.at(d.pos+1) == 'M' {
		return true
	}
	// "UMB" in the middle of a word followed by a vowel, or at the end,
	// collapses to a single M.
	return d.stringAt(d.pos-1, 3, "UMB") && (d.pos+2 == d.n || isVowel(d.at(d.pos+2)))
}

func (d *dmState) handleC() int {
	i := d.pos
	if d.stringAt(i, 6, "CAESAR") {
		d.addBoth("S")
		return i + 2
	}
	if d.stringAt(i, 2, "CH") {
		if d.stringAt(i, 4, "CHIA") {
			d.addBoth("K")
			return i + 2
		}
		if d.stringAt(i+2, 2, "AE") && i == 0 {
			d.addBoth("K")
			return i + 2
		}
		if isGermanicOrSlavic(d) || d.stringAt(i, 4, "CHAE") {
			d.addBoth("K")
			return i + 2
		}
		if i == 0 {
			d.add("X", "K")
			return i + 2
		}
		d.addBoth("X")
		return i + 2
	}
	if d.stringAt(i, 2, "CZ") {
		d.addBoth("S")
		return i + 2
	}
	if d.stringAt(i, 3, "CIA") {
		d.addBoth("X")
		return i + 3
	}
	if d.stringAt(i, 2, "CC") && !(i > 0 && d.at(i-1) == 'M') {
		if isCCIOrCCYOrCCE(d, i) {
			if d.stringAt(i+2, 1, "H") {
				d.addBoth("K")
				return i + 3
			}
			d.addBoth("S")
			return i + 3
		}
		d.addBoth("K")
		return i + 2
	}
	if d.stringAt(i, 2, "CK", "CG", "CQ") {
		d.addBoth("K")
		return i + 2
	}
	if d.stringAt(i, 2, "CI", "CE", "CY") {
		if d.stringAt(i, 3, "CIO", "CIE", "CIA") {
			d.addBoth("S")
		} else {
			d.addBoth("S")
		}
		return i + 2
	}
	if d.stringAt(i, 3, " C ") {
		d.addBoth("K")
		return i + 2
	}
	d.addBoth("K")
	if d.stringAt(i+1, 2, " C", " Q", " G") {
		return i + 3
	}
	if d.stringAt(i+1, 1, "C", "K", "Q") && !d.stringAt(i+1, 2, "CE", "CI") {
		return i + 2
	}
	return i + 1
}

func isCCIOrCCYOrCCE(d *dmState, i int) bool {
	return d.stringAt(i+2, 1, "I", "E", "Y") && !d.stringAt(i+2, 2, "HU")
}

func isGermanicOrSlavic(d *dmState) bool {
	// Heuristic stand-in for the reference algorithm's language hint —
	// we have no original-language metadata, so approximate using the
	// common Germanic/Slavic consonant clusters the reference algorithm
	// itself checks for.
	w := string(d.r)
	for _, cluster := range []string{"WITZ", "WICZ", "SCHN", "SCHW", "TSCH"} {
		if strings.Contains(w, cluster) {
			return true
		}
	}
	return false
}

func (d *dmState) handleD() int {
	i := d.pos
	if d.stringAt(i, 2, "DG") {
		if d.stringAt(i+2, 1, "I", "E", "Y") {
			d.addBoth("J")
			return i + 3
		}
		d.addBoth("TK")
		return i + 2
	}
	if d.stringAt(i, 2, "DT", "DD") {
		d.addBoth("T")
		return i + 2
	}
	d.addBoth("T")
	return i + 1
}

func (d *dmState) handleG() int {
	i := d.pos
	if d.at(i+1) == 'H' {
		if i > 0 && !isVowel(d.at(i-1)) {
			d.addBoth("K")
			return i + 2
		}
		if i == 0 {
			if d.at(i+2) == 'I' {
				d.addBoth("J")
			} else {
				d.addBoth("K")
			}
			return i + 2
		}
		d.pos += 2
		return d.pos
	}
	if d.at(i+1) == 'N' {
		if d.stringAt(i+1, 3, "NED") && i+4 == d.n {
			d.addBoth("")
			return i + 3
		}
		d.addBoth("K")
		return i + 2
	}
	if d.stringAt(i, 2, "LI") && !isSlavicGermanic(d) {
		d.add("KL", "L")
		return i + 2
	}
	if i == 0 && (d.stringAt(i+1, 1, "Y") || d.stringAt(i+1, 2, "ES", "EP", "EB", "EL", "EY", "IB", "IL", "IN", "IE", "EI", "ER")) {
		d.addBoth("K")
		return i + 2
	}
	if (d.stringAt(i+1, 1, "E", "I", "Y") || d.stringAt(i-1, 4, "AGGI", "OGGI")) && !(d.at(0) == 'D' && d.stringAt(i+1, 1, "E", "I"))  {
		if isSlavicGermanic(d) {
			d.addBoth("K")
		} else {
			d.add("J", "K")
		}
		return i + 2
	}
	if d.at(i+1) == 'G' {
		d.addBoth("K")
		return i + 2
	}
	d.addBoth("K")
	return i + 1
}

func isSlavicGermanic(d *dmState) bool {
	return isGermanicOrSlavic(d)
}

func (d *dmState) handleH() int {
	i := d.pos
	startsVowelHVowel := (i == 0 || isVowel(d.at(i-1))) && isVowel(d.at(i+1))
	if startsVowelHVowel {
		d.addBoth("H")
		return i + 2
	}
	return i + 1
}

func (d *dmState) handleJ() int {
	i := d.pos
	if d.stringAt(i, 4, "JOSE") || d.stringAt(0, 4, "SAN ") {
		if (i == 0 && d.at(i+4) == ' ') || d.stringAt(0, 4, "SAN ") {
			d.addBoth("H")
			return i + 1
		}
	}
	if i == 0 && !d.stringAt(i, 4, "JOSE") {
		d.add("J", "A")
	} else if isVowel(d.at(i-1)) && !isSlavicGermanic(d) && (d.at(i+1) == 'A' || d.at(i+1) == 'O') {
		d.add("J", "H")
	} else if i+1 == d.n {
		d.add("J", "")
	} else if !d.stringAt(i+1, 1, "L", "T", "K", "S", "N", "M", "B", "Z") && !d.stringAt(i-1, 1, "S", "K", "L") {
		d.addBoth("J")
	} else {
		d.addBoth("")
	}
	if d.at(i+1) == 'J' {
		return i + 2
	}
	return i + 1
}

func (d *dmState) handleL() int {
	i := d.pos
	if d.at(i+1) == 'L' {
		if isTrailingSpanishLE(d, i) {
			d.add("L", "")
			return i + 2
		}
		d.addBoth("L")
		return i + 2
	}
	d.addBoth("L")
	return i + 1
}

func isTrailingSpanishLE(d *dmState, i int) bool {
	if i+3 == d.n && d.stringAt(i-1, 4, "ILLO", "ILLA", "ALLE") {
		return true
	}
	if (d.stringAt(d.n-2, 2, "AS", "OS") || d.stringAt(d.n-1, 1, "A", "O")) && d.stringAt(i-1, 4, "ALLE") {
		return true
	}
	return false
}

func (d *dmState) handleP() int {
	i := d.pos
	if d.at(i+1) == 'H' {
		d.addBoth("F")
		return i + 2
	}
	if d.stringAt(i, 2, "PB") {
		d.addBoth("P")
		return i + 2
	}
	d.addBoth("P")
	return i + 1
}

func (d *dmState) handleR() int {
	i := d.pos
	if i+1 == d.n && !isSlavicGermanic(d) && d.stringAt(i-2, 2, "IE") && !d.stringAt(i-4, 2, "ME", "MA") {
		d.add("", "R")
		return i + 1
	}
	d.addBoth("R")
	if d.at(i+1) == 'R' {
		return i + 2
	}
	return i + 1
}

func (d *dmState) handleS() int {
	i := d.pos
	if d.stringAt(i-1, 3, "ISL", "YSL") {
		return i + 1
	}
	if i == 0 && d.stringAt(i, 5, "SUGAR") {
		d.add("X", "S")
		return i + 1
	}
	if d.stringAt(i, 2, "SH") {
		if d.stringAt(i+1, 4, "HEIM", "HOEK", "HOLM", "HOLZ") {
			d.addBoth("S")
		} else {
			d.addBoth("X")
		}
		return i + 2
	}
	if d.stringAt(i, 3, "SIO", "SIA") {
		if isSlavicGermanic(d) {
			d.addBoth("S")
		} else {
			d.add("S", "X")
		}
		return i + 3
	}
	if i == 0 && d.stringAt(i+1, 1, "M", "N", "L", "W") || d.stringAt(i+1, 1, "Z") {
		d.add("S", "X")
		if d.at(i+1) == 'Z' {
			return i + 2
		}
		return i + 1
	}
	if d.stringAt(i, 2, "SC") {
		return d.handleSC()
	}
	if i+1 == d.n && d.stringAt(i-2, 2, "AI", "OI") {
		d.add("", "S")
	} else {
		d.addBoth("S")
	}
	if d.stringAt(i+1, 1, "S", "Z") {
		return i + 2
	}
	return i + 1
}

func (d *dmState) handleSC() int {
	i := d.pos
	if d.at(i+2) == 'H' {
		if d.stringAt(i+3, 2, "OO", "ER", "EN", "UY", "ED", "EM") {
			if d.stringAt(i+3, 2, "ER", "EN") {
				d.addBoth("X")
			} else {
				d.addBoth("SK")
			}
			return i + 3
		}
		if i == 0 && !isVowel(d.at(3)) && d.at(3) != 'W' {
			d.add("X", "S")
		} else {
			d.addBoth("X")
		}
		return i + 3
	}
	if d.stringAt(i+2, 1, "I", "E", "Y") {
		d.addBoth("S")
		return i + 3
	}
	d.addBoth("SK")
	return i + 3
}

func (d *dmState) handleT() int {
	i := d.pos
	if d.stringAt(i, 4, "TION") {
		d.addBoth("X")
		return i + 3
	}
	if d.stringAt(i, 3, "TIA", "TCH") {
		d.addBoth("X")
		return i + 3
	}
	if d.stringAt(i, 2, "TH") || d.stringAt(i, 3, "TTH") {
		if d.stringAt(i+2, 2, "OM", "AM") || d.stringAt(0, 4, "VAN ", "VON ") || d.stringAt(0, 3, "SCH") {
			d.addBoth("T")
		} else {
			d.add("0", "T")
		}
		return i + 2
	}
	if d.stringAt(i, 2, "TT", "TD") {
		d.addBoth("T")
		return i + 2
	}
	d.addBoth("T")
	return i + 1
}

func (d *dmState) handleW() int {
	i := d.pos
	if d.stringAt(i, 2, "WR") {
		d.addBoth("R")
		return i + 2
	}
	if i == 0 && (isVowel(d.at(i+1)) || d.stringAt(i, 2, "WH")) {
		if isVowel(d.at(i+1)) {
			d.add("A", "F")
		} else {
			d.addBoth("A")
		}
		return i + 1
	}
	if (i+1 == d.n && isVowel(d.at(i-1))) || d.stringAt(i-1, 5, "EWSKI", "EWSKY", "OWSKI", "OWSKY") || d.stringAt(0, 3, "SCH") {
		d.add("", "F")
		return i + 1
	}
	if d.stringAt(i, 4, "WICZ", "WITZ") {
		d.add("TS", "FX")
		return i + 4
	}
	return i + 1
}

func (d *dmState) handleX() int {
	i := d.pos
	if i+1 == d.n && (d.stringAt(i-3, 3, "IAU", "EAU") || d.stringAt(i-2, 2, "AU", "OU")) {
		return i + 1
	}
	if i == 0 {
		d.addBoth("S")
	} else {
		d.addBoth("KS")
	}
	if d.stringAt(i+1, 1, "C", "X") {
		return i + 2
	}
	return i + 1
}

func (d *dmState) handleZ() int {
	i := d.pos
	if d.at(i+1) == 'H' {
		d.addBoth("J")
		return i + 2
	}
	if d.stringAt(i+1, 2, "ZO", "ZI", "ZA") || (isSlavicGermanic(d) && i > 0 && d.at(i-1) != 'T') {
		d.add("S", "TS")
	} else {
		d.addBoth("S")
	}
	if d.at(i+1) == 'Z' {
		return i + 2
	}
	return i + 1
}
