package fetcher

// In-page scripts. They are opaque constants to the pipeline, which only
// decides when they run.

const locationScript = `() => window.location.href`

const titleScript = `() => document.title || ''`

// bodyTextScript returns the visible text of the page.
const bodyTextScript = `() => (document.body && document.body.innerText) || ''`

// textLengthScript returns the visible text length of the page.
const textLengthScript = `() => ((document.body && document.body.innerText) || '').length`

// scrollScript sweeps the page top to bottom to mount lazy sections, then
// returns to the top because some layouts hide the header while scrolled.
// Arguments: step (px), pause (ms), maxSteps, minHeight (px).
const scrollScript = `async (step, pause, maxSteps, minHeight) => {
	const delay = ms => new Promise(r => setTimeout(r, ms));
	const height = Math.max((document.body && document.body.scrollHeight) || 0, minHeight);
	const steps = Math.min(maxSteps, Math.ceil(height / step));
	for (let i = 0; i < steps; i++) {
		window.scrollTo(0, i * step);
		await delay(pause);
	}
	window.scrollTo(0, 0);
	return steps;
}`

// genericContentScript returns the inner HTML of the first node matching
// selectors, with noise subtrees removed. Elements whose class or id
// contains a noise pattern are removed too, unless they hold most of the
// text (a wrapper class like "content share-enabled" must survive).
// Arguments: selectors, noiseSelectors, noisePatterns.
const genericContentScript = `(selectors, noiseSelectors, noisePatterns) => {
	let el = null;
	for (const s of selectors) {
		try { el = document.querySelector(s); } catch (e) { el = null; }
		if (el) break;
	}
	if (!el) el = document.body;
	if (!el) return '';

	const clone = el.cloneNode(true);
	for (const s of noiseSelectors) {
		try { clone.querySelectorAll(s).forEach(n => n.remove()); } catch (e) {}
	}
	if (noisePatterns.length > 0) {
		const total = (clone.textContent || '').length;
		clone.querySelectorAll('[class], [id]').forEach(n => {
			if (!n.isConnected) return;
			const cls = typeof n.className === 'string' ? n.className : '';
			const key = (cls + ' ' + (n.id || '')).toLowerCase();
			if (!noisePatterns.some(p => key.includes(p))) return;
			if ((n.textContent || '').length * 2 < total) n.remove();
		});
	}
	return clone.innerHTML || '';
}`
