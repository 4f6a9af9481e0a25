package labeler

// vectorizerStopwords returns the English stopword filter applied at the
// vectorization stage. It filters independently of the normalizer's stopword
// pass, so a term the normalizer keeps can still be dropped here.
func vectorizerStopwords() map[string]struct{} {
	words := []string{
		"a", "about", "above", "across", "after", "again", "against", "all",
		"almost", "alone", "along", "already", "also", "although", "always",
		"among", "an", "and", "another", "any", "anyone", "anything",
		"anywhere", "are", "around", "as", "at", "back", "be", "became",
		"because", "become", "becomes", "been", "before", "behind", "being",
		"below", "between", "both", "but", "by", "can", "cannot", "could",
		"did", "do", "does", "done", "down", "during", "each", "either",
		"else", "enough", "etc", "even", "ever", "every", "everyone",
		"everything", "everywhere", "few", "find", "first", "for", "former",
		"from", "further", "had", "has", "have", "he", "hence", "her", "here",
		"hers", "herself", "him", "himself", "his", "how", "however", "i",
		"if", "in", "indeed", "into", "is", "it", "its", "itself", "last",
		"latter", "least", "less", "many", "may", "me", "might", "mine",
		"more", "moreover", "most", "mostly", "much", "must", "my", "myself",
		"namely", "neither", "never", "nevertheless", "next", "no", "nobody",
		"none", "nor", "not", "nothing", "now", "nowhere", "of", "off",
		"often", "on", "once", "one", "only", "onto", "or", "other", "others",
		"otherwise", "our", "ours", "ourselves", "out", "over", "own", "per",
		"perhaps", "rather", "re", "same", "seem", "seemed", "seeming",
		"seems", "several", "she", "should", "since", "so", "some", "somehow",
		"someone", "something", "sometime", "sometimes", "somewhere", "still",
		"such", "than", "that", "the", "their", "theirs", "them",
		"themselves", "then", "thence", "there", "thereafter", "thereby",
		"therefore", "these", "they", "this", "those", "though", "through",
		"throughout", "thus", "to", "together", "too", "toward", "towards",
		"under", "until", "up", "upon", "us", "very", "was", "we", "well",
		"were", "what", "whatever", "when", "whence", "whenever", "where",
		"whereas", "whereby", "wherever", "whether", "which", "while",
		"whither", "who", "whoever", "whole", "whom", "whose", "why", "will",
		"with", "within", "without", "would", "yet", "you", "your", "yours",
		"yourself", "yourselves",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
